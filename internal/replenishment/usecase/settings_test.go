package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-replenishment-service/internal/model"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
)

func TestUpsertStoreTier(t *testing.T) {
	tests := []struct {
		name    string
		input   dto.UpsertStoreTierInput
		wantErr error
	}{
		{"valid lowercase tier", dto.UpsertStoreTierInput{StoreID: "S1", Tier: "a", SafetyDays: 2, TargetCoverDays: 5, ExpiryWindowDays: 30}, nil},
		{"missing store", dto.UpsertStoreTierInput{Tier: "A", SafetyDays: 2, TargetCoverDays: 5, ExpiryWindowDays: 30}, replenishment.ErrInvalidInput},
		{"unknown tier", dto.UpsertStoreTierInput{StoreID: "S1", Tier: "C", SafetyDays: 2, TargetCoverDays: 5, ExpiryWindowDays: 30}, replenishment.ErrInvalidInput},
		{"zero expiry", dto.UpsertStoreTierInput{StoreID: "S1", Tier: "B", SafetyDays: 2, TargetCoverDays: 5}, replenishment.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			uc, _ := newTestUseCase(repo)

			input := tt.input
			got, err := uc.UpsertStoreTier(context.Background(), &input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				if len(repo.tiers) != 0 {
					t.Errorf("Expected no stored tiers, got %d", len(repo.tiers))
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.Tier != "A" {
				t.Errorf("Expected tier A, got %s", got.Tier)
			}
			if len(repo.tiers) != 1 {
				t.Errorf("Expected 1 stored tier, got %d", len(repo.tiers))
			}
		})
	}
}

func TestStoreTierAffectsNextRun(t *testing.T) {
	repo := seededRepo()
	repo.warehouse["P1"] = 1000
	uc, _ := newTestUseCase(repo)
	ctx := context.Background()

	_, err := uc.UpsertStoreTier(ctx, &dto.UpsertStoreTierInput{StoreID: "S1", Tier: "A", SafetyDays: 1, TargetCoverDays: 3, ExpiryWindowDays: 60})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	d := runDate
	if _, err := uc.TriggerRun(ctx, &dto.TriggerRunInput{RunDate: &d}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// sads 5: min = 5*9 + 5 = 50, max = 50 + 15 = 65, position 10
	for _, p := range repo.plans["2024-03-01"] {
		if p.StoreID == "S1" && p.RequestedShipQty != 55 {
			t.Errorf("Expected S1 to request 55 under tier A, got %d", p.RequestedShipQty)
		}
	}

	if err := uc.DeleteStoreTier(ctx, "S1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := uc.DeleteStoreTier(ctx, "S1"); !errors.Is(err, replenishment.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSeasonalityLifecycle(t *testing.T) {
	repo := newFakeRepo()
	uc, _ := newTestUseCase(repo)
	ctx := context.Background()

	created, err := uc.CreateSeasonality(ctx, &dto.SeasonalityInput{StartDate: "2024-12-01", EndDate: "2024-12-31", Label: "Holidays"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if created.ID == 0 || created.Multiplier != 1.0 {
		t.Errorf("Expected stored period with default multiplier, got %+v", created)
	}

	m := 1.8
	updated, err := uc.UpdateSeasonality(ctx, &dto.SeasonalityInput{ID: created.ID, Multiplier: &m})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if updated.Multiplier != 1.8 || updated.Label != "Holidays" {
		t.Errorf("Expected partial update to keep the label, got %+v", updated)
	}

	if _, err := uc.UpdateSeasonality(ctx, &dto.SeasonalityInput{ID: created.ID, EndDate: "2024-11-01"}); !errors.Is(err, replenishment.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for inverted range, got %v", err)
	}
	if _, err := uc.UpdateSeasonality(ctx, &dto.SeasonalityInput{ID: 99, Multiplier: &m}); !errors.Is(err, replenishment.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := uc.DeleteSeasonality(ctx, created.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := uc.DeleteSeasonality(ctx, created.ID); !errors.Is(err, replenishment.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreateSeasonality_Validation(t *testing.T) {
	negative := -0.5
	tests := []struct {
		name  string
		input dto.SeasonalityInput
	}{
		{"missing label", dto.SeasonalityInput{StartDate: "2024-12-01", EndDate: "2024-12-31"}},
		{"missing start", dto.SeasonalityInput{EndDate: "2024-12-31", Label: "x"}},
		{"bad date", dto.SeasonalityInput{StartDate: "12/01/2024", EndDate: "2024-12-31", Label: "x"}},
		{"end before start", dto.SeasonalityInput{StartDate: "2024-12-31", EndDate: "2024-12-01", Label: "x"}},
		{"negative multiplier", dto.SeasonalityInput{StartDate: "2024-12-01", EndDate: "2024-12-31", Label: "x", Multiplier: &negative}},
	}

	uc, _ := newTestUseCase(newFakeRepo())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			if _, err := uc.CreateSeasonality(context.Background(), &input); !errors.Is(err, replenishment.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestBulkUpdates(t *testing.T) {
	repo := newFakeRepo()
	repo.pipeline = []model.StorePipeline{{StoreID: "S1", ProductID: "P1", OnOrderUnits: 4}}
	repo.warehouse["P1"] = 10
	uc, _ := newTestUseCase(repo)
	ctx := context.Background()

	res, err := uc.UpdatePipeline(ctx, []dto.PipelineItemInput{
		{StoreID: "S1", ProductID: "P1", OnOrderUnits: 8},
		{StoreID: "S2", ProductID: "P1", OnOrderUnits: 3},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Updated != 1 || res.Created != 1 {
		t.Errorf("Expected 1 updated and 1 created, got %+v", res)
	}

	res, err = uc.UpdateWarehouseInventory(ctx, []dto.WarehouseItemInput{
		{ProductID: "P1", WhOnHandUnits: 0},
		{ProductID: "P2", WhOnHandUnits: 25},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Updated != 1 || res.Created != 1 {
		t.Errorf("Expected 1 updated and 1 created, got %+v", res)
	}

	res, err = uc.UpdatePipeline(ctx, nil)
	if err != nil || res.Updated != 0 || res.Created != 0 {
		t.Errorf("Expected empty result for empty input, got %+v, %v", res, err)
	}

	if _, err := uc.UpdatePipeline(ctx, []dto.PipelineItemInput{{StoreID: "S1", ProductID: "P1", OnOrderUnits: -1}}); !errors.Is(err, replenishment.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for negative on-order, got %v", err)
	}
	if _, err := uc.UpdateWarehouseInventory(ctx, []dto.WarehouseItemInput{{WhOnHandUnits: 5}}); !errors.Is(err, replenishment.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing product, got %v", err)
	}
}

func TestUpdateSettings(t *testing.T) {
	repo := newFakeRepo()
	uc, _ := newTestUseCase(repo)

	got, err := uc.UpdateSettings(context.Background(), &dto.UpdateSettingsInput{UseInventorySnapshots: false})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.UseInventorySnapshots {
		t.Error("Expected snapshots to be disabled")
	}
	if repo.settings.UseInventorySnapshots {
		t.Error("Expected stored settings to be updated")
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/auth"
	"github.com/fekuna/omnipos-replenishment-service/internal/logger"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const dateLayout = "2006-01-02"

var _ ReplenishmentServer = (*ReplenishmentHandler)(nil)

type ReplenishmentHandler struct {
	uc         replenishment.UseCase
	runTimeout time.Duration
	logger     logger.ZapLogger
}

// NewReplenishmentHandler serves the use case over gRPC. A positive
// runTimeout caps TriggerRun calls whose client sets no shorter deadline.
func NewReplenishmentHandler(uc replenishment.UseCase, runTimeout time.Duration, log logger.ZapLogger) *ReplenishmentHandler {
	return &ReplenishmentHandler{
		uc:         uc,
		runTimeout: runTimeout,
		logger:     log,
	}
}

type runDateRequest struct {
	RunDate string `json:"run_date"`
}

type triggerRunRequest struct {
	RunDate string `json:"run_date"`
	StoreID string `json:"store_id"`
}

type planRequest struct {
	StoreIDs   []string `json:"store_ids"`
	ProductIDs []string `json:"product_ids"`
}

type storeRequest struct {
	StoreID string `json:"store_id"`
}

type idRequest struct {
	ID int64 `json:"id"`
}

type pipelineUpdateRequest struct {
	Items []dto.PipelineItemInput `json:"items"`
}

type warehouseUpdateRequest struct {
	Items []dto.WarehouseItemInput `json:"items"`
}

type listResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

// decode copies a Struct into a tagged Go value by way of JSON.
func decode(req *structpb.Struct, v interface{}) error {
	if req == nil {
		return nil
	}
	raw, err := protojson.Marshal(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func encode(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func parseRunDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "run_date must be YYYY-MM-DD")
	}
	return &d, nil
}

// toStatus maps domain errors onto gRPC codes.
func toStatus(err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, replenishment.ErrRunInProgress):
		code = codes.Aborted
	case errors.Is(err, replenishment.ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, replenishment.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	}
	return status.Error(code, err.Error())
}

func (h *ReplenishmentHandler) TriggerRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in triggerRunRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	runDate, err := parseRunDate(in.RunDate)
	if err != nil {
		return nil, err
	}

	input := &dto.TriggerRunInput{
		RunDate:     runDate,
		RequestedBy: auth.GetActor(ctx),
	}
	if in.StoreID != "" {
		input.StoreID = &in.StoreID
	}

	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}

	summary, err := h.uc.TriggerRun(ctx, input)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(summary)
}

func (h *ReplenishmentHandler) GetLatestPlan(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in planRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	var filter *dto.PlanFilter
	if len(in.StoreIDs) > 0 || len(in.ProductIDs) > 0 {
		filter = &dto.PlanFilter{StoreIDs: in.StoreIDs, ProductIDs: in.ProductIDs}
	}

	plan, err := h.uc.GetLatestPlan(ctx, filter)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(plan)
}

func (h *ReplenishmentHandler) GetPicklist(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in runDateRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	runDate, err := parseRunDate(in.RunDate)
	if err != nil {
		return nil, err
	}

	picklist, err := h.uc.GetPicklist(ctx, runDate)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(picklist)
}

func (h *ReplenishmentHandler) GetExceptions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in runDateRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	runDate, err := parseRunDate(in.RunDate)
	if err != nil {
		return nil, err
	}

	exceptions, err := h.uc.GetExceptions(ctx, runDate)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(exceptions)
}

func (h *ReplenishmentHandler) GetDataReadiness(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	readiness, err := h.uc.GetDataReadiness(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(readiness)
}

func (h *ReplenishmentHandler) ListStoreTiers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tiers, err := h.uc.ListStoreTiers(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(listResponse{Items: tiers, Total: len(tiers)})
}

func (h *ReplenishmentHandler) UpsertStoreTier(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in dto.UpsertStoreTierInput
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	tier, err := h.uc.UpsertStoreTier(ctx, &in)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(tier)
}

func (h *ReplenishmentHandler) DeleteStoreTier(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in storeRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	if in.StoreID == "" {
		return nil, status.Error(codes.InvalidArgument, "store_id is required")
	}

	if err := h.uc.DeleteStoreTier(ctx, in.StoreID); err != nil {
		return nil, toStatus(err)
	}
	return encode(deleteResponse{Deleted: true})
}

func (h *ReplenishmentHandler) ListSeasonality(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	periods, err := h.uc.ListSeasonality(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(listResponse{Items: periods, Total: len(periods)})
}

func (h *ReplenishmentHandler) CreateSeasonality(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in dto.SeasonalityInput
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	period, err := h.uc.CreateSeasonality(ctx, &in)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(period)
}

func (h *ReplenishmentHandler) UpdateSeasonality(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in dto.SeasonalityInput
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	if in.ID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	period, err := h.uc.UpdateSeasonality(ctx, &in)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(period)
}

func (h *ReplenishmentHandler) DeleteSeasonality(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	if in.ID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	if err := h.uc.DeleteSeasonality(ctx, in.ID); err != nil {
		return nil, toStatus(err)
	}
	return encode(deleteResponse{Deleted: true})
}

func (h *ReplenishmentHandler) ListPipeline(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in planRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	var filter *dto.PipelineFilter
	if len(in.StoreIDs) > 0 {
		filter = &dto.PipelineFilter{StoreIDs: in.StoreIDs}
	}

	items, err := h.uc.ListPipeline(ctx, filter)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(listResponse{Items: items, Total: len(items)})
}

func (h *ReplenishmentHandler) UpdatePipeline(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in pipelineUpdateRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	result, err := h.uc.UpdatePipeline(ctx, in.Items)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(result)
}

func (h *ReplenishmentHandler) ListWarehouseInventory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in planRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	var filter *dto.WarehouseFilter
	if len(in.ProductIDs) > 0 {
		filter = &dto.WarehouseFilter{ProductIDs: in.ProductIDs}
	}

	items, err := h.uc.ListWarehouseInventory(ctx, filter)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(listResponse{Items: items, Total: len(items)})
}

func (h *ReplenishmentHandler) UpdateWarehouseInventory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in warehouseUpdateRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	result, err := h.uc.UpdateWarehouseInventory(ctx, in.Items)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(result)
}

func (h *ReplenishmentHandler) GetSettings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	settings, err := h.uc.GetSettings(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(settings)
}

func (h *ReplenishmentHandler) UpdateSettings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in dto.UpdateSettingsInput
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	settings, err := h.uc.UpdateSettings(ctx, &in)
	if err != nil {
		return nil, toStatus(err)
	}

	h.logger.Info("Settings changed over RPC",
		zap.String("actor", auth.GetActor(ctx)),
		zap.Bool("use_inventory_snapshots", settings.UseInventorySnapshots),
	)
	return encode(settings)
}

package model

type Store struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

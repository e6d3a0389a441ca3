package repository

import "context"

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// NopDB reports healthy without a database. Used with the in-memory repositories.
type NopDB struct{}

func (NopDB) Ping(context.Context) error { return nil }

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrUserNotFound é retornado quando o UID não tem registro no PostgreSQL.
var ErrUserNotFound = errors.New("usuário não encontrado")

// Usuario é o registro local de uma identidade anônima do Firebase.
type Usuario struct {
	FirebaseUID string    `json:"firebase_uid"`
	IsPro       bool      `json:"is_pro"`
	CreatedAt   time.Time `json:"created_at"`
}

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	firebase_uid TEXT PRIMARY KEY,
	is_pro       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// UserRepository persiste usuários e o flag "pro" no PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// EnsureSchema cria a tabela de usuários se ainda não existir.
func (r *UserRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, usersSchema); err != nil {
		return fmt.Errorf("erro ao criar tabela users: %w", err)
	}
	return nil
}

// EnsureUser insere o usuário no primeiro acesso e devolve o registro atual.
func (r *UserRepository) EnsureUser(ctx context.Context, uid string) (*Usuario, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (firebase_uid) VALUES ($1) ON CONFLICT (firebase_uid) DO NOTHING`, uid)
	if err != nil {
		return nil, fmt.Errorf("erro ao inserir usuário no DB: %w", err)
	}
	return r.GetUser(ctx, uid)
}

func (r *UserRepository) GetUser(ctx context.Context, uid string) (*Usuario, error) {
	var u Usuario
	err := r.db.QueryRowContext(ctx,
		`SELECT firebase_uid, is_pro, created_at FROM users WHERE firebase_uid = $1`, uid).
		Scan(&u.FirebaseUID, &u.IsPro, &u.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("erro ao buscar usuário no DB: %w", err)
	}
	return &u, nil
}

// IsPro informa se o usuário tem acesso às funcionalidades pro.
// Usuário sem registro é tratado como gratuito.
func (r *UserRepository) IsPro(ctx context.Context, uid string) (bool, error) {
	u, err := r.GetUser(ctx, uid)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsPro, nil
}

// SetPro altera o flag pro, criando o usuário se necessário.
func (r *UserRepository) SetPro(ctx context.Context, uid string, isPro bool) (*Usuario, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (firebase_uid, is_pro) VALUES ($1, $2)
		ON CONFLICT (firebase_uid) DO UPDATE SET is_pro = EXCLUDED.is_pro`, uid, isPro)
	if err != nil {
		return nil, fmt.Errorf("erro ao atualizar flag pro: %w", err)
	}
	return r.GetUser(ctx, uid)
}

// AnonymousIdentity é a identidade anônima emitida para um cliente.
type AnonymousIdentity struct {
	UID         string `json:"uid"`
	CustomToken string `json:"customToken"`
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DefinitionStore struct {
	db *pgxpool.Pool
}

func NewDefinitionStore(db *pgxpool.Pool) *DefinitionStore {
	return &DefinitionStore{db: db}
}

func (s *DefinitionStore) Create(ctx context.Context, d *domain.Definition) error {
	if d.Context.IsEmpty() {
		return fmt.Errorf("definition %q has no context", d.Term)
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO definitions (term, text, category, organisation, jurisdiction, legal_act, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id::text, created_at`,
		d.Term, d.Text, string(d.Category),
		d.Context.Organisation, d.Context.Jurisdiction, d.Context.LegalAct, d.Source,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *DefinitionStore) GetByID(ctx context.Context, id string) (*domain.Definition, error) {
	d := &domain.Definition{}
	var category string
	err := s.db.QueryRow(ctx,
		`SELECT id::text, term, text, category, organisation, jurisdiction, legal_act, source, created_at
		 FROM definitions WHERE id::text = $1`,
		id,
	).Scan(&d.ID, &d.Term, &d.Text, &category,
		&d.Context.Organisation, &d.Context.Jurisdiction, &d.Context.LegalAct, &d.Source, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.Category = domain.Category(category)
	return d, nil
}

// ListByScope returns every definition sharing at least one context field
// with scope, oldest first. Fields are compared case-insensitively; the
// caller decides whether the remaining fields conflict.
func (s *DefinitionStore) ListByScope(ctx context.Context, scope domain.ContextRef) ([]domain.Definition, error) {
	n := scope.Normalized()
	rows, err := s.db.Query(ctx,
		`SELECT id::text, term, text, category, organisation, jurisdiction, legal_act, source, created_at
		 FROM definitions
		 WHERE ($1 <> '' AND lower(organisation) = $1)
		    OR ($2 <> '' AND lower(jurisdiction) = $2)
		    OR ($3 <> '' AND lower(legal_act) = $3)
		 ORDER BY created_at, id`,
		n.Organisation, n.Jurisdiction, n.LegalAct,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Definition
	for rows.Next() {
		var d domain.Definition
		var category string
		if err := rows.Scan(&d.ID, &d.Term, &d.Text, &category,
			&d.Context.Organisation, &d.Context.Jurisdiction, &d.Context.LegalAct, &d.Source, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Category = domain.Category(category)
		out = append(out, d)
	}
	return out, rows.Err()
}

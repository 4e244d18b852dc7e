package clients

import (
	"context"
	"errors"
	"fmt"
)

// ErrClientInUse signals a delete attempt for a client that still has orders.
var ErrClientInUse = errors.New("client has orders and cannot be deleted")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Client, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Client, error) {
	if id <= 0 {
		return Client{}, errors.New("invalid client ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, client Client) (Client, error) {
	if err := s.validate(client); err != nil {
		return Client{}, err
	}
	return s.repo.Create(ctx, client)
}

func (s *Service) Update(ctx context.Context, id int64, client Client) error {
	if id <= 0 {
		return errors.New("invalid client ID")
	}
	if err := s.validate(client); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, client)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid client ID")
	}
	inUse, err := s.repo.HasOrders(ctx, id)
	if err != nil {
		return fmt.Errorf("clients: check orders: %w", err)
	}
	if inUse {
		return ErrClientInUse
	}
	return s.repo.Delete(ctx, id)
}

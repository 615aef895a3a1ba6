package service

import (
	"context"
	"fmt"
	"strings"

	"bulkmart/internal/model"
	"bulkmart/internal/notify"
	"bulkmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// adminService implements AdminService.
type adminService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	orderRepo    repository.OrderRepository
	returnRepo   repository.ReturnRepository
	signaler     Signaler
	logger       zerolog.Logger
}

// NewAdminService creates a new admin service. Writes that change cached data
// are announced through signaler.
func NewAdminService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	orderRepo repository.OrderRepository,
	returnRepo repository.ReturnRepository,
	signaler Signaler,
	logger zerolog.Logger,
) AdminService {
	return &adminService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		orderRepo:    orderRepo,
		returnRepo:   returnRepo,
		signaler:     signaler,
		logger:       logger.With().Str("service", "admin").Logger(),
	}
}

// UpsertProduct validates and stores a product.
func (s *adminService) UpsertProduct(ctx context.Context, p *model.Product) error {
	if p == nil {
		return model.NewDomainError(model.ErrCodeMissingField, "Product is required")
	}
	p.Slug = strings.TrimSpace(p.Slug)
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	if err := s.productRepo.Upsert(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to upsert product")
		return fmt.Errorf("failed to save product: %w", err)
	}

	s.logger.Info().Str("product_id", p.ID).Str("slug", p.Slug).Msg("product saved")
	s.signal(ctx, notify.TopicProducts)
	return nil
}

// UpdateStock sets a product's stock level.
func (s *adminService) UpdateStock(ctx context.Context, productID string, stock int) error {
	if stock < 0 {
		return model.NewDomainError(model.ErrCodeInvalidField, "Stock quantity cannot be negative")
	}

	if err := s.productRepo.UpdateStock(ctx, productID, stock); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return err
		}
		s.logger.Error().Err(err).Str("product_id", productID).Msg("failed to update stock")
		return fmt.Errorf("failed to update stock: %w", err)
	}

	s.signal(ctx, notify.TopicProducts)
	return nil
}

// UpsertCategory validates and stores a category. A missing ID is taken from the slug.
func (s *adminService) UpsertCategory(ctx context.Context, c *model.Category) error {
	if c == nil {
		return model.NewDomainError(model.ErrCodeMissingField, "Category is required")
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = strings.TrimSpace(c.Slug)
	if c.Name == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "Category name is required")
	}
	if c.Slug == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "Category slug is required")
	}
	if c.ID == "" {
		c.ID = c.Slug
	}

	if err := s.categoryRepo.Upsert(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("category_id", c.ID).Msg("failed to upsert category")
		return fmt.Errorf("failed to save category: %w", err)
	}

	s.signal(ctx, notify.TopicCategories)
	return nil
}

// UpdateOrderStatus moves an order to a new status.
func (s *adminService) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	if !status.Valid() {
		return model.NewDomainError(model.ErrCodeInvalidField, "Unknown order status")
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return err
		}
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

// UpdateReturnStatus moves a return along its adjudication graph.
func (s *adminService) UpdateReturnStatus(ctx context.Context, returnID string, status model.ReturnStatus) error {
	if !status.Valid() {
		return model.NewDomainError(model.ErrCodeInvalidField, "Unknown return status")
	}

	current, err := s.returnRepo.GetByID(ctx, returnID)
	if err != nil {
		s.logger.Error().Err(err).Str("return_id", returnID).Msg("failed to get return request")
		return fmt.Errorf("failed to update return status: %w", err)
	}
	if current == nil {
		return model.ErrReturnNotFound
	}

	if !current.Status.CanTransitionTo(status) {
		s.logger.Warn().
			Str("return_id", returnID).
			Str("from", string(current.Status)).
			Str("to", string(status)).
			Msg("rejected return status change")
		return model.ErrInvalidTransition
	}

	if err := s.returnRepo.UpdateStatus(ctx, returnID, current.Status, status); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return err
		}
		s.logger.Error().Err(err).Str("return_id", returnID).Msg("failed to update return status")
		return fmt.Errorf("failed to update return status: %w", err)
	}
	return nil
}

// ReloadContent asks every instance to reload homepage content.
func (s *adminService) ReloadContent(ctx context.Context) error {
	if err := s.signaler.Signal(ctx, notify.TopicContent); err != nil {
		return fmt.Errorf("failed to reload content: %w", err)
	}
	return nil
}

func (s *adminService) signal(ctx context.Context, topic notify.Topic) {
	if err := s.signaler.Signal(ctx, topic); err != nil {
		s.logger.Warn().Err(err).Str("topic", string(topic)).Msg("failed to signal change")
	}
}

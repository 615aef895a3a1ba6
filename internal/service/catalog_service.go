package service

import (
	"context"
	"fmt"
	"strings"

	"bulkmart/internal/catalog"
	"bulkmart/internal/content"
	"bulkmart/internal/model"
	"bulkmart/internal/notify"
	"bulkmart/internal/repository"
	"bulkmart/internal/session"

	"github.com/rs/zerolog"
)

// maxPageSize caps client-requested page sizes.
const maxPageSize = 100

// CatalogConfig tunes the catalogue caches.
type CatalogConfig struct {
	FeaturedLimit int
	ContentPath   string
}

// catalogService implements CatalogService.
type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	loader       content.Loader
	sessions     *session.Registry
	cfg          CatalogConfig
	logger       zerolog.Logger

	featured   *notify.Hub[[]model.Product]
	categories *notify.Hub[[]model.Category]
	home       *notify.Hub[model.HomeContent]
}

// NewCatalogService creates a catalogue service. Its caches start empty and
// are filled by the Reload methods or lazily on first read.
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	loader content.Loader,
	sessions *session.Registry,
	cfg CatalogConfig,
	logger zerolog.Logger,
) CatalogService {
	if cfg.FeaturedLimit <= 0 {
		cfg.FeaturedLimit = 8
	}
	log := logger.With().Str("service", "catalog").Logger()
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		loader:       loader,
		sessions:     sessions,
		cfg:          cfg,
		logger:       log,
		featured:     notify.NewHub[[]model.Product]("featured", log),
		categories:   notify.NewHub[[]model.Category]("categories", log),
		home:         notify.NewHub[model.HomeContent]("home-content", log),
	}
}

// ListPage retrieves one keyset page of products.
func (s *catalogService) ListPage(ctx context.Context, cursor catalog.Cursor, pageSize int, sort catalog.SortKey) (*ProductPage, error) {
	if pageSize <= 0 {
		pageSize = catalog.DefaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	products, next, err := s.productRepo.ListProducts(ctx, cursor, pageSize, sort)
	if err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		s.logger.Error().Err(err).
			Str("sort", string(sort)).
			Int("page_size", pageSize).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Str("sort", string(sort)).
		Bool("has_more", next != "").
		Msg("retrieved product page")

	return &ProductPage{
		Products:   products,
		NextCursor: next,
		HasMore:    len(products) >= pageSize && next != "",
	}, nil
}

// ProductBySlug retrieves a single product by slug.
func (s *catalogService) ProductBySlug(ctx context.Context, slug string) (*model.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		s.logger.Warn().Msg("product slug is empty")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", slug).Msg("failed to get product by slug")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("slug", slug).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Categories returns active categories from the cache, or every category when
// activeOnly is false. An empty or unreachable catalogue yields the built-in set.
func (s *catalogService) Categories(ctx context.Context, activeOnly bool) []model.Category {
	if !activeOnly {
		all, err := s.categoryRepo.ListCategories(ctx, false)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to list categories, using defaults")
			return model.DefaultCategories()
		}
		if len(all) == 0 {
			return model.DefaultCategories()
		}
		return all
	}

	cached, ok := s.categories.Current()
	if !ok {
		if err := s.ReloadCategories(ctx); err != nil {
			return model.DefaultCategories()
		}
		cached, _ = s.categories.Current()
	}
	if len(cached) == 0 {
		return model.DefaultCategories()
	}
	return cached
}

// Featured returns the cached featured products, loading them on first use.
func (s *catalogService) Featured(ctx context.Context) []model.Product {
	cached, ok := s.featured.Current()
	if !ok {
		if err := s.ReloadFeatured(ctx); err != nil {
			return []model.Product{}
		}
		cached, _ = s.featured.Current()
	}
	return cached
}

// HomeContent returns the cached homepage content, loading it on first use.
func (s *catalogService) HomeContent(ctx context.Context) model.HomeContent {
	cached, ok := s.home.Current()
	if !ok {
		if err := s.ReloadContent(ctx); err != nil {
			return content.Default()
		}
		cached, _ = s.home.Current()
	}
	return cached
}

// ReloadFeatured reads the featured products and publishes them.
func (s *catalogService) ReloadFeatured(ctx context.Context) error {
	products, err := s.productRepo.ListFeatured(ctx, s.cfg.FeaturedLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to reload featured products")
		return fmt.Errorf("failed to reload featured products: %w", err)
	}
	s.featured.Publish(products)
	s.logger.Debug().Int("count", len(products)).Msg("featured products reloaded")
	return nil
}

// ReloadCategories reads the active categories and publishes them. On failure
// the previous snapshot is kept.
func (s *catalogService) ReloadCategories(ctx context.Context) error {
	categories, err := s.categoryRepo.ListCategories(ctx, true)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to reload categories")
		return fmt.Errorf("failed to reload categories: %w", err)
	}
	s.categories.Publish(categories)
	s.logger.Debug().Int("count", len(categories)).Msg("categories reloaded")
	return nil
}

// ReloadContent reads and validates homepage content and publishes it. A
// failure keeps the previous snapshot, or the built-in content if there is none.
func (s *catalogService) ReloadContent(ctx context.Context) error {
	hc, err := s.loader.Load(ctx, s.cfg.ContentPath)
	if err == nil {
		err = content.Validate(hc)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.cfg.ContentPath).Msg("failed to reload homepage content")
		if _, ok := s.home.Current(); !ok {
			s.home.Publish(content.Default())
		}
		return fmt.Errorf("failed to reload homepage content: %w", err)
	}

	s.home.Publish(*hc)
	s.logger.Info().Int("banners", len(hc.Banners)).Msg("homepage content reloaded")
	return nil
}

// SubscribeContent registers fn for homepage content changes. fn receives the
// current content straight away if it has been loaded.
func (s *catalogService) SubscribeContent(fn func(model.HomeContent)) *notify.Subscription[model.HomeContent] {
	return s.home.Subscribe(fn)
}

// FeedView renders the session's feed without fetching.
func (s *catalogService) FeedView(ctx context.Context, sessionID string, q FeedQuery) (*FeedView, error) {
	pager := s.sessions.Get(ctx, sessionID).Feed(q.Sort)
	return s.render(pager, q, "", pager.Err()), nil
}

// FeedLoadMore fetches the next page of the session's feed. A fetch failure is
// reported in the view alongside the products already held.
func (s *catalogService) FeedLoadMore(ctx context.Context, sessionID string, q FeedQuery) (*FeedView, error) {
	pager := s.sessions.Get(ctx, sessionID).Feed(q.Sort)
	res, err := pager.LoadMore(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("feed page failed")
	}
	return s.render(pager, q, res.Outcome, err), nil
}

// FeedReset restarts the session's feed from the first page.
func (s *catalogService) FeedReset(ctx context.Context, sessionID string, q FeedQuery) (*FeedView, error) {
	pager := s.sessions.Get(ctx, sessionID).Feed(q.Sort)
	res, err := pager.Reset(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("feed reset failed")
	}
	return s.render(pager, q, res.Outcome, err), nil
}

func (s *catalogService) render(pager *catalog.Pager, q FeedQuery, outcome catalog.Outcome, err error) *FeedView {
	items := pager.Items()
	view := &FeedView{
		Products: catalog.Apply(items, q.Filters, pager.Sort()),
		Loaded:   len(items),
		HasMore:  pager.HasMore(),
		Loading:  pager.Loading(),
		Outcome:  outcome,
		Facets:   catalog.BuildFacets(items),
	}
	if err != nil {
		view.Error = "Failed to load products. Please try again."
	}
	return view
}

// Close stops the cache hubs.
func (s *catalogService) Close() {
	s.featured.Close()
	s.categories.Close()
	s.home.Close()
}

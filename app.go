package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

type ViewMode string

const (
	ViewAdmin  ViewMode = "admin"
	ViewPublic ViewMode = "public"
	ViewDetail ViewMode = "detail"
)

type App struct {
	config        Config
	svc           ArticleService
	validator     *IntentValidator
	logger        *slog.Logger
	coordinator   *Coordinator
	admin         AdminState
	public        PublicState
	publicPage    int
	publicAuthor  string
	publicHasNext bool
	view          ViewMode
	selectedIndex int
	status        string
	confirm       ConfirmFunc
	openURL       func(string) error
}

func NewApp(cfg Config, svc ArticleService, validator *IntentValidator, logger *slog.Logger) *App {
	if logger == nil {
		logger = discardLogger()
	}
	app := &App{
		config:     cfg,
		svc:        svc,
		validator:  validator,
		logger:     logger,
		admin:      AdminState{Articles: []Article{}, BaseURL: cfg.APIBaseURL},
		public:     PublicState{Articles: []Article{}},
		publicPage: 1,
		view:       ViewAdmin,
		openURL:    defaultOpenURL,
	}
	if cfg.StartView == string(ViewPublic) {
		app.view = ViewPublic
	}
	app.coordinator = NewCoordinator(svc, validator, &app.admin, app.confirmPrompt, logger)
	return app
}

func (a *App) confirmPrompt(prompt string) bool {
	if a.confirm == nil {
		return false
	}
	return a.confirm(prompt)
}

// Load fetches whatever the current view shows.
func (a *App) Load(ctx context.Context) error {
	if a.view == ViewAdmin {
		return a.Refresh(ctx)
	}
	return a.LoadPublic(ctx)
}

func (a *App) Refresh(ctx context.Context) error {
	err := a.coordinator.Refresh(ctx)
	a.clampSelection()
	if err != nil {
		a.status = "refresh failed"
		return err
	}
	a.status = fmt.Sprintf("%d articles loaded", len(a.admin.Articles))
	return nil
}

func (a *App) LoadPublic(ctx context.Context) error {
	a.public.Loading = true
	page, err := a.svc.GetArticlePage(ctx, ListQuery{Page: a.publicPage, Author: a.publicAuthor})
	a.public = ReconcilePublished(a.public, page.Results, err)
	a.publicHasNext = err == nil && page.Next != ""
	a.clampSelection()
	if err != nil {
		a.logger.Error("load published articles failed", "page", a.publicPage, "error", err)
		return err
	}
	a.status = fmt.Sprintf("page %d: %d published articles", a.publicPage, len(a.public.Articles))
	return nil
}

func (a *App) ChangePublicPage(ctx context.Context, delta int) error {
	target := a.publicPage + delta
	if target < 1 || (delta > 0 && !a.publicHasNext) {
		a.status = "no more pages"
		return nil
	}
	a.publicPage = target
	a.selectedIndex = 0
	return a.LoadPublic(ctx)
}

// SetAuthorFilter narrows the blog view to authors containing the value and
// goes back to the first page. An empty value clears the filter.
func (a *App) SetAuthorFilter(ctx context.Context, author string) error {
	a.publicAuthor = strings.TrimSpace(author)
	a.publicPage = 1
	a.selectedIndex = 0
	if a.view != ViewPublic {
		a.CloseDetail()
		a.view = ViewPublic
	}
	return a.LoadPublic(ctx)
}

func (a *App) OpenDetail(ctx context.Context) error {
	article := a.SelectedArticle()
	if article == nil || a.view != ViewPublic {
		return nil
	}
	fetched, err := a.svc.GetArticle(ctx, article.ID)
	a.public = ReconcileDetail(a.public, fetched, err)
	a.view = ViewDetail
	if err != nil {
		a.logger.Error("load article failed", "id", article.ID, "error", err)
	}
	return nil
}

func (a *App) CloseDetail() {
	if a.view != ViewDetail {
		return
	}
	a.public.Detail = nil
	a.public.DetailError = ""
	a.view = ViewPublic
}

func (a *App) ToggleView(ctx context.Context) error {
	switch a.view {
	case ViewAdmin:
		a.view = ViewPublic
	default:
		a.CloseDetail()
		a.view = ViewAdmin
	}
	a.selectedIndex = 0
	return a.Load(ctx)
}

func (a *App) Articles() []Article {
	if a.view == ViewAdmin {
		return a.admin.Articles
	}
	return a.public.Articles
}

func (a *App) SelectedArticle() *Article {
	articles := a.Articles()
	if len(articles) == 0 || a.selectedIndex < 0 || a.selectedIndex >= len(articles) {
		return nil
	}
	article := articles[a.selectedIndex]
	return &article
}

func (a *App) MoveSelection(delta int) {
	articles := a.Articles()
	if len(articles) == 0 {
		a.selectedIndex = 0
		return
	}
	a.selectedIndex = clamp(a.selectedIndex+delta, 0, len(articles)-1)
}

func (a *App) clampSelection() {
	total := len(a.Articles())
	if a.selectedIndex >= total {
		a.selectedIndex = total - 1
	}
	if a.selectedIndex < 0 {
		a.selectedIndex = 0
	}
}

func (a *App) DeleteSelected(ctx context.Context) error {
	article := a.SelectedArticle()
	if article == nil || a.view != ViewAdmin {
		return nil
	}
	err := a.coordinator.Delete(ctx, article.ID)
	a.clampSelection()
	switch {
	case errors.Is(err, errDeleteDeclined):
		a.status = "delete cancelled"
		return nil
	case err != nil:
		a.status = a.admin.Error
		return err
	}
	a.status = "article deleted"
	return nil
}

func (a *App) StartCreate() {
	a.admin = OpenForm(a.admin, nil)
}

func (a *App) StartEdit() bool {
	article := a.SelectedArticle()
	if article == nil || a.view != ViewAdmin {
		return false
	}
	a.admin = OpenForm(a.admin, article)
	return true
}

func (a *App) CancelForm() {
	a.admin = CloseForm(a.admin)
}

// Save sends the intent and refetches; on failure the form stays open.
func (a *App) Save(ctx context.Context, intent any) error {
	if err := a.coordinator.Save(ctx, intent); err != nil {
		a.status = a.admin.Error
		return err
	}
	a.clampSelection()
	a.status = "article saved"
	return nil
}

func (a *App) OpenSelectedImage() error {
	article := a.SelectedArticle()
	if a.view == ViewDetail && a.public.Detail != nil {
		article = a.public.Detail
	}
	if article == nil {
		return nil
	}
	if article.Image == "" {
		a.status = "article has no image"
		return nil
	}
	return a.openURL(article.Image)
}

func (a *App) Stats() *ArticleStats {
	return a.admin.Stats
}

// errorMessage is the user-facing error of the current view, if any.
func (a *App) errorMessage() string {
	switch a.view {
	case ViewAdmin:
		return a.admin.Error
	case ViewDetail:
		return a.public.DetailError
	default:
		return a.public.Error
	}
}

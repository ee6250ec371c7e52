package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"

	"kanban-mail-backend/internal/kanban/domain"
)

// columnPage is what one column contributes to a board page.
type columnPage struct {
	items   []*domain.KanbanItem
	total   int
	warning *domain.Warning
	failed  bool
}

// lazyMailbox opens the user's mailbox at most once per board request.
type lazyMailbox struct {
	provider MailboxProvider
	userID   string
	mb       Mailbox
	err      error
	opened   bool
}

func (l *lazyMailbox) get(ctx context.Context) (Mailbox, error) {
	if !l.opened {
		l.opened = true
		l.mb, l.err = l.provider.ForUser(ctx, l.userID)
	}
	return l.mb, l.err
}

func sortColumns(columns []domain.Column) {
	sort.SliceStable(columns, func(i, j int) bool {
		return columns[i].Order < columns[j].Order
	})
}

func (u *kanbanUsecase) pageSize(requested int) int {
	if requested < 1 {
		return u.opts.PageSize
	}
	if requested > MaxPageSize {
		return MaxPageSize
	}
	return requested
}

// GetBoard assembles one page of every column. Column level failures are
// reported as warnings; only a failure to load the columns fails the call.
func (u *kanbanUsecase) GetBoard(ctx context.Context, q BoardQuery) (*domain.Board, error) {
	pageSize := u.pageSize(q.PageSize)

	columns, err := u.settingsRepo.GetColumns(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("load columns: %w", err)
	}
	sortColumns(columns)

	board := &domain.Board{
		Data:     make(map[string][]*domain.KanbanItem, len(columns)),
		Meta:     domain.BoardMeta{PageSize: pageSize, Total: make(map[string]int, len(columns))},
		Columns:  columns,
		Warnings: []domain.Warning{},
	}

	if q.Label != "" {
		if _, err := u.SyncLabelToItems(ctx, q.UserID, q.Label, presyncCount); err != nil {
			log.Printf("[Board] Pre-sync of label %s failed for user %s: %v", q.Label, q.UserID, err)
			board.Warnings = append(board.Warnings, domain.Warning{
				ColumnID: "",
				Message:  fmt.Sprintf("Could not sync label %s: %v", q.Label, err),
				Type:     domain.WarningTypeSync,
			})
		}
	}

	offsets := DecodePageToken(q.PageToken)
	next := make(PageState, len(columns))
	mailbox := &lazyMailbox{provider: u.mailboxes, userID: q.UserID}

	for _, col := range columns {
		offset := offsets[col.ID]
		page := u.loadColumn(ctx, q.UserID, mailbox, col, offset, pageSize)

		if page.items == nil {
			page.items = []*domain.KanbanItem{}
		}
		board.Data[col.ID] = page.items
		board.Meta.Total[col.ID] = page.total
		if page.warning != nil {
			board.Warnings = append(board.Warnings, *page.warning)
		}

		if page.failed {
			next[col.ID] = offset
			continue
		}
		next[col.ID] = offset + pageSize
		if offset+pageSize < page.total {
			board.Meta.HasMore = true
		}
	}

	if board.Meta.HasMore {
		board.Meta.NextPageToken = EncodePageToken(next)
	}
	return board, nil
}

func (u *kanbanUsecase) loadColumn(ctx context.Context, userID string, mailbox *lazyMailbox, col domain.Column, offset, pageSize int) columnPage {
	label, bound := col.BoundLabel()
	if !bound {
		return u.loadLocalColumn(ctx, userID, col, offset, pageSize, nil)
	}

	mb, err := mailbox.get(ctx)
	if err != nil {
		log.Printf("[Board] Mailbox unavailable for user %s: %v", userID, err)
		return columnPage{failed: true, warning: &domain.Warning{
			ColumnID: col.ID,
			Message:  fmt.Sprintf("Mailbox unavailable: %v", err),
			Type:     domain.WarningTypeError,
		}}
	}

	labelID := u.labels.Resolve(ctx, userID, mb, label)
	if labelID == "" {
		return u.loadLocalColumn(ctx, userID, col, offset, pageSize, &domain.Warning{
			ColumnID: col.ID,
			Message:  fmt.Sprintf("Label %q not found; showing local items only", label),
			Type:     domain.WarningTypeWarning,
		})
	}
	return u.loadRemoteColumn(ctx, userID, mb, col, labelID, offset, pageSize)
}

// loadLocalColumn pages through items whose status is the column id.
func (u *kanbanUsecase) loadLocalColumn(ctx context.Context, userID string, col domain.Column, offset, pageSize int, warning *domain.Warning) columnPage {
	total, err := u.itemRepo.CountByStatus(ctx, userID, col.ID)
	if err != nil {
		return localFailure(userID, col, err)
	}
	items, err := u.itemRepo.ListByStatus(ctx, userID, col.ID, offset, pageSize)
	if err != nil {
		return localFailure(userID, col, err)
	}
	return columnPage{items: items, total: int(total), warning: warning}
}

func localFailure(userID string, col domain.Column, err error) columnPage {
	log.Printf("[Board] Failed to load column %s for user %s: %v", col.ID, userID, err)
	return columnPage{failed: true, warning: &domain.Warning{
		ColumnID: col.ID,
		Message:  fmt.Sprintf("Failed to load column: %v", err),
		Type:     domain.WarningTypeError,
	}}
}

// loadRemoteColumn treats the remote label as the source of truth for
// membership: the window comes from the label listing, missing rows are
// synced in, and stale local statuses are corrected.
func (u *kanbanUsecase) loadRemoteColumn(ctx context.Context, userID string, mb Mailbox, col domain.Column, labelID string, offset, pageSize int) columnPage {
	ids, total, err := listRemoteWindow(ctx, mb, labelID, offset+pageSize)
	if err != nil {
		log.Printf("[Board] Failed to list label %s for user %s: %v", labelID, userID, err)
		return columnPage{failed: true, warning: &domain.Warning{
			ColumnID: col.ID,
			Message:  fmt.Sprintf("Failed to load messages for label %s: %v", labelID, err),
			Type:     domain.WarningTypeError,
		}}
	}

	var window []string
	if offset < len(ids) {
		end := offset + pageSize
		if end > len(ids) {
			end = len(ids)
		}
		window = ids[offset:end]
	}
	page := columnPage{items: []*domain.KanbanItem{}, total: total}
	if len(window) == 0 {
		return page
	}

	existing, err := u.itemRepo.FindByMessageIDs(ctx, userID, window)
	if err != nil {
		return localFailure(userID, col, err)
	}

	var missing []string
	for _, id := range window {
		if _, ok := existing[id]; !ok {
			missing = append(missing, id)
		}
	}
	synced, failed := u.syncMessages(ctx, mb, userID, labelID, col.ID, missing)
	for id, item := range synced {
		existing[id] = item
	}
	if failed > 0 {
		page.warning = &domain.Warning{
			ColumnID: col.ID,
			Message:  fmt.Sprintf("%d message(s) could not be synced", failed),
			Type:     domain.WarningTypeWarning,
		}
	}

	var stale []string
	for _, id := range window {
		item, ok := existing[id]
		if !ok || item.IsSnoozed() {
			continue
		}
		if item.Status != col.ID {
			stale = append(stale, id)
			item.Status = col.ID
		}
		page.items = append(page.items, item)
	}

	if len(stale) > 0 {
		if n, err := u.itemRepo.CorrectStatus(ctx, userID, stale, col.ID); err != nil {
			log.Printf("[Board] Failed to correct status of %d items in %s: %v", len(stale), col.ID, err)
		} else {
			log.Printf("[Board] Corrected %d items into column %s for user %s", n, col.ID, userID)
		}
	}
	return page
}

// listRemoteWindow collects up to want message ids of a label, paging the
// provider as needed. Total is exact once the label is exhausted, otherwise
// an estimate that is always larger than what was collected.
func listRemoteWindow(ctx context.Context, mb Mailbox, labelID string, want int) ([]string, int, error) {
	var (
		ids       []string
		token     string
		estimate  int
		exhausted bool
	)

	for len(ids) < want {
		batch := want - len(ids)
		if batch > maxListPageSize {
			batch = maxListPageSize
		}
		page, err := mb.ListMessages(ctx, labelID, batch, token)
		if err != nil {
			return nil, 0, err
		}
		if token == "" {
			estimate = page.ResultSizeEstimate
		}
		ids = append(ids, page.IDs...)
		token = page.NextPageToken
		if token == "" || len(page.IDs) == 0 {
			exhausted = true
			break
		}
	}

	if exhausted {
		return ids, len(ids), nil
	}
	total := estimate
	if total < len(ids)+1 {
		total = len(ids) + 1
	}
	return ids, total, nil
}

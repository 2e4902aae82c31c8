package listings

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"staymarket/internal/app/commands"
	handlersupport "staymarket/internal/app/handlers/support"
	"staymarket/internal/app/queries"
	"staymarket/internal/app/uow"
	domainlistings "staymarket/internal/domain/listings"
	"staymarket/internal/domain/shared/money"
	domainuser "staymarket/internal/domain/user"
)

const (
	createHostListingKey  = "host.listings.create"
	publishHostListingKey = "host.listings.publish"
	listHostListingsKey   = "host.listings.list"
)

var ErrListingNotOwned = errors.New("listings: not owned by host")

type HostListingPayload struct {
	Title            string
	Description      string
	City             string
	Country          string
	NightlyRateCents int64
	CleaningFeeCents int64
	Currency         string
	GuestsLimit      int
}

type CreateHostListingCommand struct {
	HostID  string
	Payload HostListingPayload
}

func (c CreateHostListingCommand) Key() string { return createHostListingKey }

type HostListingDetail struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	City        string `json:"city"`
	Country     string `json:"country"`
	NightlyRate int64  `json:"nightly_rate"`
	CleaningFee int64  `json:"cleaning_fee"`
	Currency    string `json:"currency"`
	GuestsLimit int    `json:"guests_limit"`
	State       string `json:"state"`
}

type CreateHostListingHandler struct {
	Logger *slog.Logger
}

// Handle creates a draft listing and promotes the user to the host role on
// their first property.
func (h *CreateHostListingHandler) Handle(ctx context.Context, cmd CreateHostListingCommand) (*HostListingDetail, error) {
	if strings.TrimSpace(cmd.HostID) == "" {
		return nil, errors.New("host id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	currency := strings.ToUpper(strings.TrimSpace(cmd.Payload.Currency))
	rate, err := money.New(cmd.Payload.NightlyRateCents, currency)
	if err != nil {
		return nil, err
	}
	cleaning, err := money.New(cmd.Payload.CleaningFeeCents, currency)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:          domainlistings.ListingID(uuid.NewString()),
		Host:        domainlistings.HostID(cmd.HostID),
		Title:       cmd.Payload.Title,
		Description: cmd.Payload.Description,
		City:        cmd.Payload.City,
		Country:     cmd.Payload.Country,
		NightlyRate: rate,
		CleaningFee: cleaning,
		GuestsLimit: cmd.Payload.GuestsLimit,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if owner, err := unit.Users().ByID(ctx, domainuser.ID(cmd.HostID)); err == nil {
		if !owner.HasRole(domainuser.RoleHost) {
			owner.EnsureRole(domainuser.RoleHost, now)
			if err := unit.Users().Save(ctx, owner); err != nil {
				return nil, err
			}
		}
	}

	if h.Logger != nil {
		h.Logger.Info("host listing created", "listing_id", listing.ID, "host_id", cmd.HostID)
	}

	detail := mapHostListingDetail(listing)
	return &detail, nil
}

type PublishHostListingCommand struct {
	HostID    string
	ListingID string
}

func (c PublishHostListingCommand) Key() string { return publishHostListingKey }

type PublishHostListingHandler struct {
	Logger *slog.Logger
}

func (h *PublishHostListingHandler) Handle(ctx context.Context, cmd PublishHostListingCommand) (*HostListingDetail, error) {
	if strings.TrimSpace(cmd.HostID) == "" {
		return nil, errors.New("host id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if !listing.OwnedBy(domainlistings.HostID(cmd.HostID)) {
		return nil, ErrListingNotOwned
	}
	if err := listing.Activate(time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("host listing published", "listing_id", listing.ID, "host_id", cmd.HostID)
	}

	detail := mapHostListingDetail(listing)
	return &detail, nil
}

type ListHostListingsQuery struct {
	HostID string
}

func (q ListHostListingsQuery) Key() string { return listHostListingsKey }

type HostListingCollection struct {
	Items []HostListingDetail `json:"items"`
}

type ListHostListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHostListingsHandler) Handle(ctx context.Context, q ListHostListingsQuery) (HostListingCollection, error) {
	if strings.TrimSpace(q.HostID) == "" {
		return HostListingCollection{}, errors.New("host id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return HostListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	owned, err := unit.Listings().ByHost(execCtx, domainlistings.HostID(q.HostID))
	if err != nil {
		return HostListingCollection{}, err
	}
	items := make([]HostListingDetail, 0, len(owned))
	for _, listing := range owned {
		items = append(items, mapHostListingDetail(listing))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Title < items[j].Title })
	return HostListingCollection{Items: items}, nil
}

func mapHostListingDetail(l *domainlistings.Listing) HostListingDetail {
	return HostListingDetail{
		ID:          string(l.ID),
		Title:       l.Title,
		City:        l.City,
		Country:     l.Country,
		NightlyRate: l.NightlyRate.Amount,
		CleaningFee: l.CleaningFee.Amount,
		Currency:    l.NightlyRate.Currency,
		GuestsLimit: l.GuestsLimit,
		State:       string(l.State),
	}
}

var _ commands.Handler[CreateHostListingCommand, *HostListingDetail] = (*CreateHostListingHandler)(nil)
var _ commands.Handler[PublishHostListingCommand, *HostListingDetail] = (*PublishHostListingHandler)(nil)
var _ queries.Handler[ListHostListingsQuery, HostListingCollection] = (*ListHostListingsHandler)(nil)

package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TokenSourceFunc supplies the OAuth token source for a household user.
// Authentication itself is an external collaborator.
type TokenSourceFunc func(ctx context.Context, userID string) (oauth2.TokenSource, error)

// GoogleProvider implements Provider against the Google Calendar API.
type GoogleProvider struct {
	webhookURL string
	channelTTL time.Duration
	tokens     TokenSourceFunc
}

// NewGoogleProvider creates a Google Calendar provider. webhookURL is the
// public address push notifications are delivered to.
func NewGoogleProvider(webhookURL string, channelTTL time.Duration, tokens TokenSourceFunc) *GoogleProvider {
	if channelTTL <= 0 {
		channelTTL = 7 * 24 * time.Hour
	}
	return &GoogleProvider{webhookURL: webhookURL, channelTTL: channelTTL, tokens: tokens}
}

func (p *GoogleProvider) service(ctx context.Context, userID string) (*gcal.Service, error) {
	ts, err := p.tokens(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("token source for %s: %w", userID, err)
	}
	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

// RegisterChannel opens a web_hook push channel for the calendar.
func (p *GoogleProvider) RegisterChannel(ctx context.Context, userID, calendarID string) (*Channel, error) {
	svc, err := p.service(ctx, userID)
	if err != nil {
		return nil, err
	}
	req := &gcal.Channel{
		Id:         uuid.NewString(),
		Type:       "web_hook",
		Address:    p.webhookURL,
		Expiration: time.Now().Add(p.channelTTL).UnixMilli(),
	}
	ch, err := svc.Events.Watch(calendarID, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", calendarID, err)
	}
	return &Channel{
		ChannelID:  ch.Id,
		ResourceID: ch.ResourceId,
		Expiration: time.UnixMilli(ch.Expiration),
	}, nil
}

// UnregisterChannel stops a push channel.
func (p *GoogleProvider) UnregisterChannel(ctx context.Context, userID, channelID, resourceID string) error {
	svc, err := p.service(ctx, userID)
	if err != nil {
		return err
	}
	err = svc.Channels.Stop(&gcal.Channel{Id: channelID, ResourceId: resourceID}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("stop channel %s: %w", channelID, err)
	}
	return nil
}

// FetchDelta lists events changed since syncToken. An empty token requests a
// full sync. A 410 from the provider means the token was invalidated; the
// fetch is retried once as a full sync.
func (p *GoogleProvider) FetchDelta(ctx context.Context, userID, calendarID, syncToken string) (*Delta, error) {
	svc, err := p.service(ctx, userID)
	if err != nil {
		return nil, err
	}

	delta, err := p.list(ctx, svc, calendarID, syncToken)
	if err != nil && syncToken != "" && isGone(err) {
		delta, err = p.list(ctx, svc, calendarID, "")
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", calendarID, err)
	}
	return delta, nil
}

func (p *GoogleProvider) list(ctx context.Context, svc *gcal.Service, calendarID, syncToken string) (*Delta, error) {
	delta := &Delta{}
	pageToken := ""
	for {
		call := svc.Events.List(calendarID).SingleEvents(true).Context(ctx)
		if syncToken != "" {
			call = call.SyncToken(syncToken)
		} else {
			// Full sync: bound the window so we don't page through years
			// of history. Past events beyond a week cannot trigger insights.
			call = call.TimeMin(time.Now().AddDate(0, 0, -7).Format(time.RFC3339))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			delta.Events = append(delta.Events, fromGoogleEvent(calendarID, item))
		}
		if resp.NextPageToken == "" {
			delta.NextSyncToken = resp.NextSyncToken
			return delta, nil
		}
		pageToken = resp.NextPageToken
	}
}

// CreateEvent inserts an event into the user's calendar.
func (p *GoogleProvider) CreateEvent(ctx context.Context, userID string, event Event) (string, error) {
	svc, err := p.service(ctx, userID)
	if err != nil {
		return "", err
	}
	created, err := svc.Events.Insert(event.CalendarID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event in %s: %w", event.CalendarID, err)
	}
	return created.Id, nil
}

// UpdateEvent rewrites an existing event.
func (p *GoogleProvider) UpdateEvent(ctx context.Context, userID string, event Event) error {
	svc, err := p.service(ctx, userID)
	if err != nil {
		return err
	}
	_, err = svc.Events.Update(event.CalendarID, event.ID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update event %s: %w", event.ID, err)
	}
	return nil
}

// DeleteEvent removes an event from the calendar.
func (p *GoogleProvider) DeleteEvent(ctx context.Context, userID, calendarID, eventID string) error {
	svc, err := p.service(ctx, userID)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

func toGoogleEvent(e Event) *gcal.Event {
	return &gcal.Event{
		Summary:     e.Title,
		Description: e.Description,
		Location:    e.Location,
		Start:       &gcal.EventDateTime{DateTime: e.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: e.End.Format(time.RFC3339)},
	}
}

func fromGoogleEvent(calendarID string, item *gcal.Event) Event {
	e := Event{
		ID:          item.Id,
		CalendarID:  calendarID,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Removed:     item.Status == "cancelled",
	}
	e.Start = parseEventTime(item.Start)
	e.End = parseEventTime(item.End)
	return e
}

// parseEventTime handles both timed and all-day events.
func parseEventTime(dt *gcal.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t
		}
	}
	if dt.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", dt.Date, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func isGone(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 410
}

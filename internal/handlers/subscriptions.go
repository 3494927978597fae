package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/logging"
)

// SubscriptionHandler toggles subscriptions and serves channel audiences.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
}

type subscriptionState struct {
	IsSubscribed bool `json:"isSubscribed"`
}

type subscriberCount struct {
	SubscribersCount int64 `json:"subscribersCount"`
}

// Toggle handles PATCH /api/v1/subscriptions/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	channelID, err := pathID(r, "channelId", "channel Id")
	if err != nil {
		return err
	}
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}
	if channelID == id.UserID {
		return badRequest("You cannot subscribe to your own channel")
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, id.UserID, channelID)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("subscription toggled", "channelId", channelID, "subscribed", subscribed)

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	return respond(ctx, w, http.StatusOK, subscriptionState{IsSubscribed: subscribed}, message)
}

// Count handles GET /api/v1/subscriptions/subcount/{channelId}.
func (h SubscriptionHandler) Count(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	channelID, err := pathID(r, "channelId", "channel Id")
	if err != nil {
		return err
	}

	count, err := h.Subscriptions.CountSubscribers(ctx, channelID)
	if err != nil {
		return err
	}
	return respond(ctx, w, http.StatusOK, subscriberCount{SubscribersCount: count}, "Subscribers count fetched successfully")
}

// SubscribedChannels handles GET /api/v1/subscriptions/subscribed/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	subscriberID, err := pathID(r, "subscriberId", "subscriber Id")
	if err != nil {
		return err
	}

	channels, err := h.Subscriptions.SubscribedChannels(ctx, subscriberID)
	if err != nil {
		return err
	}
	return respond(ctx, w, http.StatusOK, channels, "Subscribed channels fetched successfully")
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	channelID, err := pathID(r, "channelId", "channel Id")
	if err != nil {
		return err
	}

	subscribers, err := h.Subscriptions.Subscribers(ctx, channelID)
	if err != nil {
		return err
	}
	return respond(ctx, w, http.StatusOK, subscribers, "Subscribers fetched successfully")
}

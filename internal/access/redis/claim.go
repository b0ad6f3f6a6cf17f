package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"controle-acesso/internal/access"
	"controle-acesso/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	defaultClaimTTL     = 10 * time.Minute
	defaultClaimWait    = 2 * time.Second
	defaultPollInterval = 25 * time.Millisecond

	// consumedMarker replaces the owner once the wrapped claimer has
	// consumed the ticket.
	consumedMarker = "consumed"
)

type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		log.Warn("REDIS", fmt.Sprintf("Invalid ticket claim TTL %s, using default %s", ttl, defaultClaimTTL))
		ttl = defaultClaimTTL
	}
	return &Redis{
		Client: client,
		TTL:    ttl,
		Logger: log,
	}
}

func claimKey(ticketID string) string {
	return "ticket_claim:" + ticketID
}

// LockTicket reserves ticketID for owner. It reports false when another
// owner already holds the key.
func (r *Redis) LockTicket(ctx context.Context, ticketID, owner string) (bool, error) {
	return r.Client.SetNX(ctx, claimKey(ticketID), owner, r.TTL).Result()
}

// UnlockTicket releases the key only if owner still holds it.
func (r *Redis) UnlockTicket(ctx context.Context, ticketID, owner string) error {
	key := claimKey(ticketID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == owner {
		return r.Client.Del(ctx, key).Err()
	}
	return nil
}

// MarkConsumed overwrites whatever holds the key with the consumed marker.
func (r *Redis) MarkConsumed(ctx context.Context, ticketID string) error {
	return r.Client.Set(ctx, claimKey(ticketID), consumedMarker, r.TTL).Err()
}

// Holder returns the current value of the ticket key, or "" when unset.
func (r *Redis) Holder(ctx context.Context, ticketID string) (string, error) {
	val, err := r.Client.Get(ctx, claimKey(ticketID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// IsClaimed reports whether some owner currently holds the ticket key.
func (r *Redis) IsClaimed(ctx context.Context, ticketID string) (bool, error) {
	n, err := r.Client.Exists(ctx, claimKey(ticketID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Claimer puts the redis lock in front of another claimer, normally the
// database. A claim that finds the key held by an unfinished claim waits for
// it; once the holder marks the ticket consumed the waiter is denied without
// touching the store. If the holder releases the key the waiter takes it, and
// if the holder never finishes within Wait the waiter goes to the wrapped
// claimer, which still decides.
type Claimer struct {
	Lock *Redis
	Next access.TicketClaimer

	Wait         time.Duration
	PollInterval time.Duration
}

func NewClaimer(lock *Redis, next access.TicketClaimer) *Claimer {
	return &Claimer{
		Lock:         lock,
		Next:         next,
		Wait:         defaultClaimWait,
		PollInterval: defaultPollInterval,
	}
}

func (c *Claimer) ClaimTicket(ctx context.Context, ticketID string, at time.Time) error {
	owner := uuid.NewString()

	owned, err := c.acquire(ctx, ticketID, owner)
	if err != nil {
		return err
	}

	err = c.Next.ClaimTicket(ctx, ticketID, at)
	if err == nil || errors.Is(err, access.ErrTicketAlreadyConsumed) {
		if markErr := c.Lock.MarkConsumed(ctx, ticketID); markErr != nil {
			c.Lock.Logger.Error("REDIS", fmt.Sprintf("Failed to mark ticket %s consumed: %v", ticketID, markErr))
		}
		return err
	}

	if owned {
		if unlockErr := c.Lock.UnlockTicket(ctx, ticketID, owner); unlockErr != nil {
			c.Lock.Logger.Error("REDIS", fmt.Sprintf("Failed to release claim on ticket %s: %v", ticketID, unlockErr))
		}
	}
	return err
}

// acquire takes the ticket key for owner. It returns ErrTicketAlreadyConsumed
// when the key carries the consumed marker and owned=false when the holder
// outlived c.Wait.
func (c *Claimer) acquire(ctx context.Context, ticketID, owner string) (bool, error) {
	deadline := time.Now().Add(c.Wait)
	for {
		ok, err := c.Lock.LockTicket(ctx, ticketID, owner)
		if err != nil {
			return false, fmt.Errorf("lock ticket %s: %w", ticketID, err)
		}
		if ok {
			return true, nil
		}

		holder, err := c.Lock.Holder(ctx, ticketID)
		if err != nil {
			return false, fmt.Errorf("read claim on ticket %s: %w", ticketID, err)
		}
		switch {
		case holder == consumedMarker:
			c.Lock.Logger.Debug("REDIS", fmt.Sprintf("Ticket %s already consumed", ticketID))
			return false, access.ErrTicketAlreadyConsumed
		case holder == "":
			continue // released between SETNX and GET
		case !time.Now().Before(deadline):
			c.Lock.Logger.Warn("REDIS", fmt.Sprintf("Claim on ticket %s held past %s, deferring to the store", ticketID, c.Wait))
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(c.PollInterval):
		}
	}
}

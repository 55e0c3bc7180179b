package availability

import "time"

// CapacityState is the capacity picture of one event at one instant.
// RemainingSpots is capacity minus sold tickets and is never clamped, so an
// oversold event shows a negative value.
type CapacityState struct {
    SoldOut        bool `json:"soldOut"`
    DateExpired    bool `json:"dateExpired"`
    RemainingSpots int  `json:"remainingSpots"`
}

// Track computes the capacity state from a fresh transaction count.  The
// count includes gateway and manual sales alike.
func Track(capacity, transactionCount int, now, endPurchaseDate time.Time) CapacityState {
    return CapacityState{
        SoldOut:        transactionCount >= capacity,
        DateExpired:    now.After(endPurchaseDate),
        RemainingSpots: capacity - transactionCount,
    }
}

package model

import "time"

// Verification is the body of GET /verify_transaction/:transactionId.
type Verification struct {
    Success       bool   `json:"success"`
    Verified      bool   `json:"verified"`
    TransactionID string `json:"transactionId"`
    Name          string `json:"name"`
    LastName      string `json:"lastName"`
    Menu          string `json:"menu,omitempty"`
    Message       string `json:"message,omitempty"`
}

// CheckInAudit is a row of the checkin_audit table.  Every door-staff
// mutation attempt is recorded, including no-ops and failures.
//
// Fields:
//  ID            – primary key identifier.
//  TransactionID – ticket the action targeted.
//  Action        – CHECKIN or UNVERIFY.
//  Actor         – staff subject taken from the session token.
//  FromVerified  – state before the action.
//  ToVerified    – state after the action.
//  Outcome       – CHANGED, NOOP or FAILED.
//  Message       – backend or local message.
//  CreatedAt     – when the action was attempted.
type CheckInAudit struct {
    ID            uint64    // checkin_audit.id
    TransactionID string    // checkin_audit.transaction_id
    Action        string    // checkin_audit.action
    Actor         string    // checkin_audit.actor
    FromVerified  bool      // checkin_audit.from_verified
    ToVerified    bool      // checkin_audit.to_verified
    Outcome       string    // checkin_audit.outcome
    Message       string    // checkin_audit.message
    CreatedAt     time.Time // checkin_audit.created_at
}

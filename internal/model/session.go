package model

import "time"

// Session represents a scheduled talk slot in an event's agenda.
// Sessions are authored by the event catalog; this service only
// mutates the denormalized IsClaimed flag and the claim-window
// fields stamped by the initialization utility.
//
// Fields:
//  ID             – opaque unique identifier.
//  EventYear      – edition of the recurring conference.
//  Title          – session title.
//  Description    – long-form description.
//  StartTime      – when the session begins (UTC).
//  EndTime        – when the session ends.
//  Room           – room or track name.
//  Tags           – free-form topic tags.
//  MaxAttendees   – capacity hint for the venue.
//  SpeakerIDs     – original speaker association, kept as a
//                   historical record distinct from the claiming
//                   speaker.
//  IsClaimed      – cached projection of the claim row's status;
//                   true iff claim_status != available.
//  YoutubeEnabled – whether the session slot may be streamed.
//  ClaimDeadline  – last moment a new speaker may claim the slot.
type Session struct {
    ID             string     // sessions.id
    EventYear      int
    Title          string
    Description    string
    StartTime      *time.Time
    EndTime        *time.Time
    Room           string
    Tags           []string
    MaxAttendees   int
    SpeakerIDs     []string
    IsClaimed      bool
    YoutubeEnabled bool
    ClaimDeadline  *time.Time
    CreatedAt      time.Time
    UpdatedAt      time.Time
}

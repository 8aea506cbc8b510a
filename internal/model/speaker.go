package model

// Speaker is the public profile of a speaker, referenced by claims
// through NewSpeakerID. Speakers are owned by an external directory;
// this service only reads them to validate claim requests and enrich
// claim responses.
type Speaker struct {
    ID      string `json:"id"`      // speakers.id
    Name    string `json:"name"`    // speakers.name
    Company string `json:"company"` // speakers.company
}

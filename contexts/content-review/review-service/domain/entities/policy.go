package entities

type CampaignOrigin string

const (
	// OriginInternal campaigns finish at internal reviewer approval.
	OriginInternal CampaignOrigin = "internal"
	// OriginExternal campaigns need an additional client approval hop.
	OriginExternal CampaignOrigin = "external"
)

// ReviewPolicy is read-only configuration projected from the campaign
// aggregate. Video is always required; photo and raw footage are opted in
// per campaign. VideoQuota caps how many video units a creator delivers,
// zero meaning uncapped.
type ReviewPolicy struct {
	CampaignID        string
	Origin            CampaignOrigin
	RequirePhoto      bool
	RequireRawFootage bool
	VideoQuota        int
}

// RequiredKinds lists every media kind the campaign demands, video first.
func (p ReviewPolicy) RequiredKinds() []MediaKind {
	kinds := []MediaKind{MediaKindVideo}
	if p.RequirePhoto {
		kinds = append(kinds, MediaKindPhoto)
	}
	if p.RequireRawFootage {
		kinds = append(kinds, MediaKindRawFootage)
	}
	return kinds
}

// DeliverableStep is one entry of the campaign's deliverable plan used when
// batch-creating submissions for an accepted creator.
type DeliverableStep struct {
	Kind      SubmissionKind
	DependsOn int // index of the prior step this one is gated behind, -1 for none
}

package reconcile

import (
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"instrument-images/core/blobname"
	"instrument-images/core/storage"
)

// Options controls how a plan is computed.
type Options struct {
	// SourcePrefix is the raw crawl namespace being reconciled.
	SourcePrefix string

	// CleanPrefix is the namespace canonical images are copied into.
	CleanPrefix string

	// RenameInClean re-timestamps destination names to the canonical
	// convention even when the source filename was non-conforming.
	RenameInClean bool

	// Bucket, when set, is stripped from absolute catalog URLs so legacy
	// rows storing full storage URLs still match blob names.
	Bucket string
}

// candidate is one blob competing to be a product's canonical image.
type candidate struct {
	name         string
	capturedAt   time.Time // zero for legacy-claimed blobs without an embedded timestamp
	lastModified time.Time
	ext          string
}

// PlanReconciliation computes the full reconciliation plan from a snapshot.
// It is pure and deterministic: the same snapshot always yields the same plan,
// and every blob in the snapshot lands in exactly one of {an action's source,
// an action's redundant list, the orphan list}.
func PlanReconciliation(snap *Snapshot, opts Options) *Plan {
	plan := &Plan{}

	// Claims let non-conforming blob names that a catalog row still references
	// participate as candidates for that row's product (legacy naming).
	claims := make(map[string]int64)
	for _, ref := range snap.Catalog {
		if p := normalizeURL(ref.ImageURL, opts.Bucket); p != "" {
			if _, taken := claims[p]; !taken {
				claims[p] = ref.ProductID
			}
		}
	}

	// Group source blobs by product id. Iterate a name-sorted copy so grouping
	// order never depends on listing order.
	blobs := make([]storage.BlobRecord, len(snap.Blobs))
	copy(blobs, snap.Blobs)
	sort.Slice(blobs, func(i, j int) bool { return blobs[i].Name < blobs[j].Name })

	candidates := make(map[int64][]candidate)
	for _, blob := range blobs {
		if parsed, ok := blobname.Parse(blob.Name, opts.SourcePrefix); ok {
			candidates[parsed.ProductID] = append(candidates[parsed.ProductID], candidate{
				name:         blob.Name,
				capturedAt:   parsed.CapturedAt,
				lastModified: blob.LastModified,
				ext:          parsed.Ext,
			})
			continue
		}
		if productID, claimed := claims[blob.Name]; claimed {
			candidates[productID] = append(candidates[productID], candidate{
				name:         blob.Name,
				lastModified: blob.LastModified,
				ext:          strings.TrimPrefix(path.Ext(blob.Name), "."),
			})
			continue
		}
		plan.OrphanBlobs = append(plan.OrphanBlobs, blob.Name)
	}

	// One action per catalog product.
	catalogSeen := make(map[int64]bool)
	for _, ref := range snap.Catalog {
		if catalogSeen[ref.ProductID] {
			continue
		}
		catalogSeen[ref.ProductID] = true
		plan.Summary.TotalProducts++

		cands := candidates[ref.ProductID]
		delete(candidates, ref.ProductID)

		current := normalizeURL(ref.ImageURL, opts.Bucket)
		chosen := -1
		actionType := ActionNoCandidate

		if current != "" {
			for i, c := range cands {
				if c.name == current {
					chosen = i
					actionType = ActionPromote
					break
				}
			}
		}
		if chosen < 0 && len(cands) > 0 {
			chosen = newestCandidate(cands)
			actionType = ActionAssociateNewest
		}

		action := Action{Type: actionType, ProductID: ref.ProductID}
		if chosen >= 0 {
			action.SourceBlob = cands[chosen].name
			action.DestBlob = destName(cands[chosen], ref.ProductID, opts)
			for i, c := range cands {
				if i != chosen {
					action.RedundantBlobs = append(action.RedundantBlobs, c.name)
				}
			}
			sort.Strings(action.RedundantBlobs)
		}

		switch actionType {
		case ActionPromote:
			plan.Summary.Promote++
		case ActionAssociateNewest:
			plan.Summary.AssociateNewest++
		case ActionNoCandidate:
			plan.Summary.NoCandidate++
		}
		plan.Summary.RedundantBlobs += len(action.RedundantBlobs)

		plan.Actions = append(plan.Actions, action)
	}

	// Candidates whose product id never appears in the catalog are orphans too.
	for _, cands := range candidates {
		for _, c := range cands {
			plan.OrphanBlobs = append(plan.OrphanBlobs, c.name)
		}
	}

	sort.Slice(plan.Actions, func(i, j int) bool { return plan.Actions[i].ProductID < plan.Actions[j].ProductID })
	sort.Strings(plan.OrphanBlobs)
	plan.Summary.OrphanBlobs = len(plan.OrphanBlobs)

	return plan
}

// newestCandidate picks the candidate with the latest capture timestamp; ties
// fall to the lexicographically greatest name, which is stable because
// timestamps are embedded in conforming names.
func newestCandidate(cands []candidate) int {
	best := 0
	for i := 1; i < len(cands); i++ {
		switch {
		case cands[i].capturedAt.After(cands[best].capturedAt):
			best = i
		case cands[i].capturedAt.Equal(cands[best].capturedAt) && cands[i].name > cands[best].name:
			best = i
		}
	}
	return best
}

// destName computes the clean-namespace destination for a chosen candidate.
func destName(c candidate, productID int64, opts Options) string {
	if opts.RenameInClean && c.ext != "" {
		capturedAt := c.capturedAt
		if capturedAt.IsZero() {
			// Legacy-named blob: the store's modification time is the best
			// capture estimate available, and it is part of the snapshot, so
			// the plan stays deterministic.
			capturedAt = c.lastModified.UTC()
		}
		return blobname.Format(opts.CleanPrefix, productID, capturedAt, c.ext)
	}
	return opts.CleanPrefix + path.Base(c.name)
}

// normalizeURL reduces a stored image URL to a blob path. Legacy rows may hold
// absolute storage URLs; current rows hold plain blob paths.
func normalizeURL(raw, bucket string) string {
	if raw == "" {
		return ""
	}
	p := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		p = u.Path
	}
	p = strings.TrimPrefix(p, "/")
	if bucket != "" {
		p = strings.TrimPrefix(p, bucket+"/")
	}
	return p
}

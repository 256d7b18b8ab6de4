package services

import (
	"net/url"
	"path"
	"strings"

	"coffeetour/internal/logger"
	"coffeetour/internal/models"
	"coffeetour/internal/repository"
)

// DedupeService finds and resolves duplicate records. Image identity and
// Instagram post identity are confirmed signals and may trigger removal;
// same-day same-place matches are only ever reported for review.
type DedupeService struct {
	repo   *repository.PostRepository
	sync   *SyncService
	backup *BackupService
}

func NewDedupeService(repo *repository.PostRepository, sync *SyncService, backup *BackupService) *DedupeService {
	return &DedupeService{repo: repo, sync: sync, backup: backup}
}

// DuplicateGroup is a set of posts sharing one duplicate signal.
type DuplicateGroup struct {
	Kind  string        `json:"kind"` // "image", "instagram", "date_location"
	Key   string        `json:"key"`
	Posts []models.Post `json:"posts"`
}

// NormalizeImageURL reduces an image reference to a comparable key. Local
// asset paths compare by basename without extension, so month
// subdirectories don't split identity; Instagram CDN URLs compare by the
// media filename segment with its query string and extension stripped,
// so both forms of the same media land on one token.
func NormalizeImageURL(raw string) string {
	if strings.HasPrefix(raw, "/assets/images/posts/") {
		base := path.Base(raw)
		return strings.TrimSuffix(base, path.Ext(base))
	}
	if strings.Contains(raw, "instagram") {
		for _, part := range strings.Split(raw, "/") {
			if strings.Contains(part, "_n.") || strings.Contains(part, "_a.") {
				if idx := strings.IndexByte(part, '?'); idx >= 0 {
					part = part[:idx]
				}
				return strings.TrimSuffix(part, path.Ext(part))
			}
		}
	}
	return raw
}

// InstagramPostID extracts the shortcode from an Instagram post URL,
// or "" when the URL does not carry one.
func InstagramPostID(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, part := range parts {
		if part == "p" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1]
		}
	}
	return ""
}

// dateLocationKey builds the weak duplicate key. Empty when any component
// is unknown, because sentinel-heavy records would otherwise all collide.
func dateLocationKey(post *models.Post) string {
	if post.Date == nil {
		return ""
	}
	key := strings.ToLower(post.DateString() + "|" + post.City + "|" + post.Country)
	if strings.Contains(key, "unknown") {
		return ""
	}
	return key
}

// ScorePost rates how much curated information a record carries. Higher
// scores win duplicate resolution; the small ID term breaks exact ties in
// favor of the newer record.
func ScorePost(post *models.Post) float64 {
	score := 0.0
	if !isPlaceholderCafe(post.CafeName) {
		score += 10
	}
	if !models.IsSentinel(post.City) {
		score += 5
	}
	if !models.IsSentinel(post.Country) {
		score += 5
	}
	if post.HasCoordinates() {
		score += 8
	}
	score += float64(len(post.Notes)) / 100
	if post.Rating != nil {
		score += 3
	}
	if post.InstagramURL != "" {
		score += 2
	}
	score += float64(post.ID) / 1000
	return score
}

// keyIndex accumulates post IDs per key while remembering first-seen key
// order, so group output is deterministic for a given store.
type keyIndex struct {
	order []string
	ids   map[string][]uint
}

func newKeyIndex() *keyIndex {
	return &keyIndex{ids: make(map[string][]uint)}
}

func (k *keyIndex) add(key string, id uint) {
	if key == "" {
		return
	}
	if _, seen := k.ids[key]; !seen {
		k.order = append(k.order, key)
	}
	k.ids[key] = append(k.ids[key], id)
}

// FindDuplicateGroups partitions the posts into confirmed duplicate
// groups (shared image or Instagram shortcode) and potential ones (same
// date and place). A post claimed by a confirmed group never reappears in
// a later group.
func FindDuplicateGroups(posts []models.Post) (confirmed, potential []DuplicateGroup) {
	byID := make(map[uint]models.Post, len(posts))
	for _, post := range posts {
		byID[post.ID] = post
	}

	images := newKeyIndex()
	shortcodes := newKeyIndex()
	locations := newKeyIndex()
	for i := range posts {
		post := &posts[i]
		// Identity rides on the primary image only; later images are often
		// shared carousel shots.
		if len(post.Images) > 0 {
			images.add(NormalizeImageURL(post.Images[0]), post.ID)
		}
		shortcodes.add(InstagramPostID(post.InstagramURL), post.ID)
		locations.add(dateLocationKey(post), post.ID)
	}

	claimed := make(map[uint]bool)
	collect := func(index *keyIndex, kind string, out *[]DuplicateGroup) {
		for _, key := range index.order {
			var members []models.Post
			for _, id := range index.ids[key] {
				if claimed[id] {
					continue
				}
				members = append(members, byID[id])
			}
			if len(members) < 2 {
				continue
			}
			for _, member := range members {
				claimed[member.ID] = true
			}
			*out = append(*out, DuplicateGroup{Kind: kind, Key: key, Posts: members})
		}
	}

	collect(images, "image", &confirmed)
	collect(shortcodes, "instagram", &confirmed)
	collect(locations, "date_location", &potential)
	return confirmed, potential
}

// Resolve picks the record to keep from a duplicate group. The rest are
// the removal set.
func Resolve(group DuplicateGroup) (keep models.Post, remove []models.Post) {
	keep = group.Posts[0]
	best := ScorePost(&keep)
	for _, post := range group.Posts[1:] {
		if score := ScorePost(&post); score > best {
			remove = append(remove, keep)
			keep = post
			best = score
			continue
		}
		remove = append(remove, post)
	}
	return keep, remove
}

// DedupeReport is the outcome of one deduplication run.
type DedupeReport struct {
	Confirmed []DuplicateGroup `json:"confirmed"`
	Potential []DuplicateGroup `json:"potential"`
	Kept      []uint           `json:"kept"`
	Removed   []uint           `json:"removed"`
	DryRun    bool             `json:"dry_run"`
	Snapshot  string           `json:"snapshot,omitempty"`
}

// RemoveDuplicates scans the store and, unless dryRun is set, removes the
// losers of every confirmed group along with their generated files. An
// encrypted snapshot is taken before anything is deleted. Potential
// groups are reported but never removed automatically.
func (s *DedupeService) RemoveDuplicates(dryRun bool) (*DedupeReport, error) {
	posts, err := s.repo.FindAllOrdered()
	if err != nil {
		return nil, err
	}

	confirmed, potential := FindDuplicateGroups(posts)
	report := &DedupeReport{Confirmed: confirmed, Potential: potential, DryRun: dryRun}

	for _, group := range confirmed {
		keep, remove := Resolve(group)
		report.Kept = append(report.Kept, keep.ID)
		for _, post := range remove {
			report.Removed = append(report.Removed, post.ID)
		}
	}

	if dryRun || len(report.Removed) == 0 {
		return report, nil
	}

	snapshot, err := s.backup.Snapshot("pre_dedupe")
	if err != nil {
		return nil, err
	}
	report.Snapshot = snapshot

	for _, group := range confirmed {
		_, remove := Resolve(group)
		for i := range remove {
			if err := s.sync.RemovePostFile(&remove[i]); err != nil {
				logger.Warnw("remove_duplicate_file_failed",
					"id", remove[i].ID, "file", remove[i].OriginalFilename, "error", err)
			}
		}
	}
	if err := s.repo.DeleteByIDs(report.Removed); err != nil {
		return nil, err
	}

	logger.Infow("dedupe_done",
		"confirmed_groups", len(confirmed), "potential_groups", len(potential),
		"removed", len(report.Removed), "snapshot", snapshot)
	return report, nil
}

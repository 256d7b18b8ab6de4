package handlers

import (
	"net/http"
	"strconv"
	"time"

	"coffeetour/internal/config"
	"coffeetour/internal/constants"
	"coffeetour/internal/models"
	"coffeetour/internal/repository"
	"coffeetour/internal/services"
	"coffeetour/internal/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	posts       *repository.PostRepository
	importSvc   *services.ImportService
	dedupeSvc   *services.DedupeService
	syncSvc     *services.SyncService
	backupSvc   *services.BackupService
	backfillSvc *services.BackfillService
	corrections *services.CorrectionService
	github      config.GithubConfig
}

func NewAdminHandler(
	posts *repository.PostRepository,
	importSvc *services.ImportService,
	dedupeSvc *services.DedupeService,
	syncSvc *services.SyncService,
	backupSvc *services.BackupService,
	backfillSvc *services.BackfillService,
	corrections *services.CorrectionService,
	github config.GithubConfig,
) *AdminHandler {
	return &AdminHandler{
		posts:       posts,
		importSvc:   importSvc,
		dedupeSvc:   dedupeSvc,
		syncSvc:     syncSvc,
		backupSvc:   backupSvc,
		backfillSvc: backfillSvc,
		corrections: corrections,
		github:      github,
	}
}

func (h *AdminHandler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	publishedOnly := c.Query("published") == "true"
	term := c.Query("q")

	if term != "" {
		posts, total, err := h.posts.Search(term, page, perPage)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"posts":      posts,
			"pagination": utils.NewPagination(page, perPage, total),
		})
		return
	}

	total, err := h.posts.Count(publishedOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	pagination := utils.NewPagination(page, perPage, total)
	posts, err := h.posts.FindPage(pagination.Page, pagination.PerPage, publishedOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "pagination": pagination})
}

func (h *AdminHandler) GetPost(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	post, err := h.posts.FindByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// postRequest is the JSON shape accepted for creates and updates. All
// fields are optional; date uses the YYYY-MM-DD form.
type postRequest struct {
	Title        *string   `json:"title"`
	Date         *string   `json:"date"`
	City         *string   `json:"city"`
	Country      *string   `json:"country"`
	Continent    *string   `json:"continent"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	CafeName     *string   `json:"cafe_name"`
	Rating       *int      `json:"rating"`
	Notes        *string   `json:"notes"`
	Images       *[]string `json:"images"`
	InstagramURL *string   `json:"instagram_url"`
	Published    *bool     `json:"published"`
}

func (r *postRequest) parsedDate() (*time.Time, bool) {
	if r.Date == nil {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", *r.Date)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// CreatePost routes a hand-entered record through the same merge-aware
// import path the bulk importers use.
func (h *AdminHandler) CreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	date, ok := req.parsedDate()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	candidate := models.Candidate{
		Date:      date,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Rating:    req.Rating,
		Published: req.Published,
	}
	if req.Title != nil {
		candidate.Title = *req.Title
	}
	if req.City != nil {
		candidate.City = *req.City
	}
	if req.Country != nil {
		candidate.Country = *req.Country
	}
	if req.Continent != nil {
		candidate.Continent = *req.Continent
	}
	if req.CafeName != nil {
		candidate.CafeName = *req.CafeName
	}
	if req.Notes != nil {
		candidate.Notes = *req.Notes
	}
	if req.Images != nil {
		candidate.Images = *req.Images
	}
	if req.InstagramURL != nil {
		candidate.InstagramURL = *req.InstagramURL
	}

	id, action, err := h.importSvc.ImportCandidate(candidate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.syncSvc.SyncOne(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "action": action})
}

// UpdatePost overwrites only the submitted fields, then refreshes the
// post's generated file.
func (h *AdminHandler) UpdatePost(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if _, err := h.posts.FindByID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	date, ok := req.parsedDate()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	fields := make(map[string]interface{})
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Date != nil {
		fields["date"] = date
	}
	if req.City != nil {
		fields["city"] = *req.City
	}
	if req.Country != nil {
		fields["country"] = *req.Country
	}
	if req.Continent != nil {
		fields["continent"] = *req.Continent
	}
	if req.Latitude != nil {
		fields["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		fields["longitude"] = *req.Longitude
	}
	if req.CafeName != nil {
		fields["cafe_name"] = *req.CafeName
	}
	if req.Rating != nil {
		fields["rating"] = *req.Rating
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}
	if req.Images != nil {
		fields["images"] = models.ImageList(*req.Images)
	}
	if req.InstagramURL != nil {
		fields["instagram_url"] = *req.InstagramURL
	}
	if req.Published != nil {
		fields["published"] = *req.Published
	}
	if len(fields) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "unchanged"})
		return
	}
	fields["updated_at"] = time.Now()

	if err := h.posts.UpdateFields(id, fields); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.syncSvc.SyncOne(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *AdminHandler) DeletePost(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	post, err := h.posts.FindByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	if err := h.syncSvc.RemovePostFile(post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.posts.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// SetPublished flips the publish flag and converges the post's file:
// unpublishing removes it, publishing a complete record creates it.
func (h *AdminHandler) SetPublished(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Published bool `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.posts.UpdateFields(id, map[string]interface{}{
		"published":  req.Published,
		"updated_at": time.Now(),
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.syncSvc.SyncOne(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "published": req.Published})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.posts.Statistics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Preview renders note markdown for the editing UI.
func (h *AdminHandler) Preview(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	html, err := utils.RenderMarkdown(req.Notes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": string(html)})
}

func (h *AdminHandler) Sync(c *gin.Context) {
	result, err := h.syncSvc.Sync()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) VerifySync(c *gin.Context) {
	result, err := h.syncSvc.Verify()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clean": result.Clean(), "result": result})
}

// Dedupe runs duplicate detection. Removal only happens with
// ?dry_run=false; the default is a report-only pass.
func (h *AdminHandler) Dedupe(c *gin.Context) {
	dryRun := c.DefaultQuery("dry_run", "true") != "false"
	report, err := h.dedupeSvc.RemoveDuplicates(dryRun)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AdminHandler) Backup(c *gin.Context) {
	path, err := h.backupSvc.Snapshot("manual")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": path})
}

func (h *AdminHandler) ImportExport(c *gin.Context) {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	stats, err := h.importSvc.ProcessExportFile(req.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) ImportMarkdown(c *gin.Context) {
	var req struct {
		Dir string `json:"dir"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Dir == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dir is required"})
		return
	}
	stats, err := h.importSvc.ImportMarkdownDir(req.Dir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// backfillRequest falls back to the configured github section for every
// field the caller leaves out.
type backfillRequest struct {
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
	Dir    string `json:"dir"`
	Token  string `json:"token"`
}

func (r *backfillRequest) applyDefaults(cfg config.GithubConfig) {
	if r.Repo == "" {
		r.Repo = cfg.Repo
	}
	if r.Branch == "" {
		r.Branch = cfg.Branch
	}
	if r.Branch == "" {
		r.Branch = "main"
	}
	if r.Dir == "" {
		r.Dir = cfg.PostsDir
	}
	if r.Dir == "" {
		r.Dir = constants.DefaultPostsDir
	}
	if r.Token == "" {
		r.Token = cfg.Token
	}
}

func (h *AdminHandler) Backfill(c *gin.Context) {
	var req backfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.applyDefaults(h.github)
	if req.Repo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "repo is required"})
		return
	}
	stats, err := h.backfillSvc.BackfillFromGithub(req.Repo, req.Branch, req.Dir, req.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) ListCorrections(c *gin.Context) {
	corrections, err := h.corrections.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"corrections": corrections})
}

func (h *AdminHandler) SaveCorrection(c *gin.Context) {
	var correction models.Correction
	if err := c.ShouldBindJSON(&correction); err != nil || correction.PostKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post_key is required"})
		return
	}
	if err := h.corrections.Save(&correction); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (h *AdminHandler) DeleteCorrection(c *gin.Context) {
	postKey := c.Query("post_key")
	if postKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post_key is required"})
		return
	}
	if err := h.corrections.Delete(postKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *AdminHandler) ApplyCorrections(c *gin.Context) {
	applied, unmatched, err := h.corrections.ApplyAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied, "unmatched": unmatched})
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}

package main

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/driftline/sieve/risk"
	"github.com/driftline/sieve/store"

	"github.com/labstack/echo/v4"
)

const (
	feedPageSize      = 10
	dashboardPageSize = 50
)

func paramID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(v), nil
}

func queryUint(c echo.Context, name string) uint {
	v, err := strconv.ParseUint(c.QueryParam(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}

func queryPage(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (s *Server) handleModerate(c echo.Context) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.JSON(http.StatusOK, s.mod.Moderate(body.Text))
}

// feedPost is one rendered feed entry: moderated display text plus the
// engagement info the display layer shows alongside it.
type feedPost struct {
	ID             uint             `json:"id"`
	UserID         uint             `json:"user_id"`
	Content        string           `json:"content"`
	Score          int              `json:"score"`
	CreatedAt      time.Time        `json:"created_at"`
	Reactions      map[string]int64 `json:"reactions,omitempty"`
	ViewerReaction string           `json:"viewer_reaction,omitempty"`
}

func (s *Server) renderPosts(c echo.Context, posts []store.Post, viewerID uint) ([]feedPost, error) {
	ctx := c.Request().Context()
	out := make([]feedPost, 0, len(posts))
	for _, p := range posts {
		res := s.mod.Moderate(p.Content)
		fp := feedPost{
			ID:        p.ID,
			UserID:    p.UserID,
			Content:   res.Text,
			Score:     res.Score,
			CreatedAt: p.CreatedAt,
		}
		counts, err := s.store.ReactionCounts(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		fp.Reactions = counts
		if viewerID != 0 {
			reaction, err := s.store.UserReaction(ctx, p.ID, viewerID)
			if err != nil {
				return nil, err
			}
			fp.ViewerReaction = reaction
		}
		out = append(out, fp)
	}
	return out, nil
}

func (s *Server) handleFeed(c echo.Context) error {
	ctx := c.Request().Context()
	viewerID := queryUint(c, "viewer")
	page := queryPage(c)
	offset := (page - 1) * feedPageSize
	sortMode := strings.ToLower(c.QueryParam("sort"))
	showFollowing := strings.ToLower(c.QueryParam("show")) == "following" && viewerID != 0

	var authorIDs []uint
	if showFollowing {
		ids, err := s.store.FollowedIDs(ctx, viewerID)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return c.JSON(http.StatusOK, []feedPost{})
		}
		authorIDs = ids
	}

	var (
		posts []store.Post
		err   error
	)
	switch sortMode {
	case "popular":
		posts, err = s.store.PopularPosts(ctx, authorIDs, feedPageSize, offset)
	case "recommended":
		posts, err = s.engine.Recommend(ctx, viewerID, showFollowing)
	default: // "new"
		posts, err = s.store.RecentPosts(ctx, authorIDs, feedPageSize, offset)
	}
	if err != nil {
		return err
	}

	rendered, err := s.renderPosts(c, posts, viewerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rendered)
}

func (s *Server) handleCreateUser(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Profile  string `json:"profile"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if body.Username == "" || body.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}
	u, err := s.store.CreateUser(c.Request().Context(), body.Username, body.Password, body.Profile)
	if err == store.ErrUsernameTaken {
		return echo.NewHTTPError(http.StatusConflict, "username already taken")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (s *Server) handleUserRisk(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	score, err := s.assessor.AssessUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	band, key := risk.DashboardBand(score)
	return c.JSON(http.StatusOK, map[string]any{
		"user_id":  userID,
		"score":    score,
		"label":    risk.Classify(score),
		"band":     band,
		"band_key": key,
	})
}

func (s *Server) handleRecommendations(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	restrict := c.QueryParam("following") == "1"
	posts, err := s.engine.Recommend(c.Request().Context(), userID, restrict)
	if err != nil {
		return err
	}
	rendered, err := s.renderPosts(c, posts, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rendered)
}

func (s *Server) handleFollow(c echo.Context) error {
	followedID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		FollowerID uint `json:"follower_id"`
	}
	if err := c.Bind(&body); err != nil || body.FollowerID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "follower_id is required")
	}
	ctx := c.Request().Context()
	target, err := s.store.GetUser(ctx, followedID)
	if err != nil {
		return err
	}
	if target == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err := s.store.FollowUser(ctx, body.FollowerID, followedID); err != nil {
		if err == store.ErrSelfFollow {
			return echo.NewHTTPError(http.StatusBadRequest, "cannot follow yourself")
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleUnfollow(c echo.Context) error {
	followedID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	followerID := queryUint(c, "follower")
	if followerID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "follower is required")
	}
	if err := s.store.UnfollowUser(c.Request().Context(), followerID, followedID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCreatePost(c echo.Context) error {
	var body struct {
		UserID  uint   `json:"user_id"`
		Content string `json:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if body.UserID == 0 || strings.TrimSpace(body.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "post cannot be empty")
	}
	p, err := s.store.CreatePost(c.Request().Context(), body.UserID, body.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handlePostDetail(c echo.Context) error {
	postID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}

	rendered, err := s.renderPosts(c, []store.Post{*p}, queryUint(c, "viewer"))
	if err != nil {
		return err
	}

	comments, err := s.store.CommentsForPost(ctx, postID)
	if err != nil {
		return err
	}
	type renderedComment struct {
		ID        uint      `json:"id"`
		UserID    uint      `json:"user_id"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
	}
	rcs := make([]renderedComment, 0, len(comments))
	for _, cm := range comments {
		rcs = append(rcs, renderedComment{
			ID:        cm.ID,
			UserID:    cm.UserID,
			Content:   s.mod.Moderate(cm.Content).Text,
			CreatedAt: cm.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"post":     rendered[0],
		"comments": rcs,
	})
}

func (s *Server) handleDeletePost(c echo.Context) error {
	postID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	actorID := queryUint(c, "user")
	ctx := c.Request().Context()
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}
	if p.UserID != actorID {
		return echo.NewHTTPError(http.StatusForbidden, "not the post author")
	}
	if err := s.store.DeletePost(ctx, postID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCreateComment(c echo.Context) error {
	postID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		UserID  uint   `json:"user_id"`
		Content string `json:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if body.UserID == 0 || strings.TrimSpace(body.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "comment cannot be empty")
	}
	cm, err := s.store.CreateComment(c.Request().Context(), postID, body.UserID, body.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cm)
}

func (s *Server) handleDeleteComment(c echo.Context) error {
	commentID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	actorID := queryUint(c, "user")
	ctx := c.Request().Context()
	cm, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if cm == nil {
		return echo.NewHTTPError(http.StatusNotFound, "comment not found")
	}
	// the comment author or the parent post's author may delete
	if cm.UserID != actorID {
		p, err := s.store.GetPost(ctx, cm.PostID)
		if err != nil {
			return err
		}
		if p == nil || p.UserID != actorID {
			return echo.NewHTTPError(http.StatusForbidden, "not allowed to delete this comment")
		}
	}
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleReact(c echo.Context) error {
	postID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		UserID uint   `json:"user_id"`
		Type   string `json:"reaction_type"`
	}
	if err := c.Bind(&body); err != nil || body.UserID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and reaction_type are required")
	}
	ctx := c.Request().Context()
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}
	if err := s.store.React(ctx, postID, body.UserID, body.Type); err != nil {
		if errors.Is(err, store.ErrUnknownReactionType) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleUnreact(c echo.Context) error {
	postID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	userID := queryUint(c, "user")
	if userID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "user is required")
	}
	if err := s.store.Unreact(c.Request().Context(), postID, userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// contentRisk is one post/comment row of the triage dashboard.
type contentRisk struct {
	store.ContentRow
	RiskScore float64 `json:"risk_score"`
	RiskBand  string  `json:"risk_band"`
	BandKey   int     `json:"band_key"`
}

func (s *Server) contentRiskRows(rows []store.ContentRow) []contentRisk {
	out := make([]contentRisk, 0, len(rows))
	for _, row := range rows {
		score := s.assessor.AssessContent(row.Content, row.AuthorCreatedAt)
		band, key := risk.DashboardBand(score)
		out = append(out, contentRisk{
			ContentRow: row,
			RiskScore:  score,
			RiskBand:   band,
			BandKey:    key,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RiskScore > out[j].RiskScore
	})
	return out
}

func (s *Server) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	page := queryPage(c)
	offset := (page - 1) * dashboardPageSize

	switch c.QueryParam("tab") {
	case "posts":
		rows, err := s.store.PostRows(ctx, dashboardPageSize, offset)
		if err != nil {
			return err
		}
		total, err := s.store.CountPosts(ctx)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{
			"posts": s.contentRiskRows(rows),
			"page":  page,
			"total": total,
		})
	case "comments":
		rows, err := s.store.CommentRows(ctx, dashboardPageSize, offset)
		if err != nil {
			return err
		}
		total, err := s.store.CountComments(ctx)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{
			"comments": s.contentRiskRows(rows),
			"page":     page,
			"total":    total,
		})
	default: // "users"
		ranked, err := s.assessor.AssessAllUsers(ctx)
		if err != nil {
			return err
		}
		total := len(ranked)
		if offset >= len(ranked) {
			ranked = nil
		} else {
			end := offset + dashboardPageSize
			if end > len(ranked) {
				end = len(ranked)
			}
			ranked = ranked[offset:end]
		}
		return c.JSON(http.StatusOK, map[string]any{
			"users": ranked,
			"page":  page,
			"total": total,
		})
	}
}

func (s *Server) handleAdminDeleteUser(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(c.Request().Context(), userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAdminDeletePost(c echo.Context) error {
	postID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := s.store.DeletePost(c.Request().Context(), postID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAdminDeleteComment(c echo.Context) error {
	commentID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := s.store.DeleteComment(c.Request().Context(), commentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hekima/shindano/core"
	"github.com/hekima/shindano/core/contest"
	"github.com/hekima/shindano/core/user"
)

var (
	errIDParamRequired        = core.NewValidationError(errors.New("Invalid parameter, id is required"))
	errContestIDParamRequired = core.NewValidationError(errors.New("Parameter error, contest_id is required"))
)

const defaultPageSize = 10

type contestApi struct {
	svc     *contest.Service
	userSvc *user.Service
}

func registerContestAPI(g *echo.Group, svc *contest.Service, userSvc *user.Service) {
	api := contestApi{svc: svc, userSvc: userSvc}

	g.GET("/contest", api.retrieve)
	g.GET("/contests", api.list)
	g.GET("/contest/announcement", api.announcements)

	g.POST("/contest/password", api.verifyPassword, loginRequiredMiddleware())
	g.GET("/contest/access", api.checkAccess, loginRequiredMiddleware())
}

func registerContestAdminAPI(g *echo.Group, svc *contest.Service, userSvc *user.Service) {
	api := contestApi{svc: svc, userSvc: userSvc}

	g.POST("/contest", api.create)
	g.PUT("/contest", api.update)
	g.GET("/contest", api.adminRetrieveOrList)
	g.DELETE("/contest", api.destroy)

	g.POST("/contest/announcement", api.createAnnouncement)
	g.PUT("/contest/announcement", api.updateAnnouncement)
	g.GET("/contest/announcement", api.adminAnnouncements)
	g.DELETE("/contest/announcement", api.destroyAnnouncement)
}

// Requests & responses

type (
	contestListRequest struct {
		Keyword  string `query:"keyword"`
		RuleType string `query:"rule_type"`
		Status   string `query:"status"`
		Limit    int    `query:"limit"`
		Offset   int    `query:"offset"`
	}

	announcementListRequest struct {
		ContestID int    `query:"contest_id"`
		ID        int    `query:"id"`
		Keyword   string `query:"keyword"`
		MaxID     int    `query:"max_id"`
	}

	pageResponse struct {
		Results interface{} `json:"results"`
		Total   int         `json:"total"`
	}

	accessResponse struct {
		Access bool `json:"access"`
	}
)

func (r *contestListRequest) filter() contest.QueryFilter {
	if r.Limit <= 0 {
		r.Limit = defaultPageSize
	}
	return contest.QueryFilter{
		Keyword:  r.Keyword,
		RuleType: r.RuleType,
		Status:   r.Status,
		Limit:    r.Limit,
		Offset:   r.Offset,
	}
}

// OJ handlers

func (api *contestApi) retrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.QueryParam("id"))
	if err != nil || id <= 0 {
		return errIDParamRequired
	}
	viewer, err := getContextViewer(ctx, api.userSvc)
	if err != nil {
		return err
	}

	c, decision, err := api.svc.GetForViewer(ctx.Request().Context(), viewer, id)
	if err != nil {
		return err
	}
	if decision.FullFields {
		return jsonData(ctx, http.StatusOK, c.AdminDetail(api.svc.Now()))
	}
	return jsonData(ctx, http.StatusOK, c.Detail(api.svc.Now()))
}

func (api *contestApi) list(ctx echo.Context) error {
	var req contestListRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to contestListRequest")
	}
	viewer, err := getContextViewer(ctx, api.userSvc)
	if err != nil {
		return err
	}

	contests, total, err := api.svc.Filter(ctx.Request().Context(), viewer, req.filter())
	if err != nil {
		return err
	}
	now := api.svc.Now()
	results := make([]contest.Detail, 0, len(contests))
	for _, c := range contests {
		results = append(results, c.Detail(now))
	}
	return jsonData(ctx, http.StatusOK, pageResponse{Results: results, Total: total})
}

func (api *contestApi) verifyPassword(ctx echo.Context) error {
	var data contest.VerifyPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyPassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	if err := api.svc.VerifyPassword(ctx.Request().Context(), viewer, data); err != nil {
		return err
	}
	return jsonData(ctx, http.StatusOK, "Succeeded")
}

func (api *contestApi) checkAccess(ctx echo.Context) error {
	contestID, err := strconv.Atoi(ctx.QueryParam("contest_id"))
	if err != nil || contestID <= 0 {
		return errContestIDParamRequired
	}
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	access, err := api.svc.CheckAccess(ctx.Request().Context(), viewer, contestID)
	if err != nil {
		return err
	}
	return jsonData(ctx, http.StatusOK, accessResponse{Access: access})
}

func (api *contestApi) announcements(ctx echo.Context) error {
	var req announcementListRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to announcementListRequest")
	}
	viewer, err := getContextViewer(ctx, api.userSvc)
	if err != nil {
		return err
	}

	announcements, err := api.svc.Announcements(ctx.Request().Context(), viewer, contest.AnnouncementFilter{
		ContestID: req.ContestID,
		ID:        req.ID,
		Keyword:   req.Keyword,
		MaxID:     req.MaxID,
	})
	if err != nil {
		return err
	}
	return jsonData(ctx, http.StatusOK, announcements)
}

// Admin handlers

func (api *contestApi) create(ctx echo.Context) error {
	var data contest.NewContest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContest")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), viewer, data)
	if err != nil {
		return err
	}
	return jsonData(ctx, http.StatusCreated, c.AdminDetail(api.svc.Now()))
}

func (api *contestApi) update(ctx echo.Context) error {
	var data contest.UpdateContest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateContest")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), viewer, data)
	if err != nil {
		return err
	}
	return jsonData(ctx, http.StatusOK, c.AdminDetail(api.svc.Now()))
}

func (api *contestApi) adminRetrieveOrList(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	if rawID := ctx.QueryParam("id"); rawID != "" {
		id, err := strconv.Atoi(rawID)
		if err != nil || id <= 0 {
			return errIDParamRequired
		}
		c, err := api.svc.GetForAdmin(ctx.Request().Context(), viewer, id)
		if err != nil {
			return err
		}
		return jsonData(ctx, http.StatusOK, c.AdminDetail(api.svc.Now()))
	}

	var req contestListRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to contestListRequest")
	}
	contests, total, err := api.svc.FilterAdmin(ctx.Request().Context(), viewer, req.filter())
	if err != nil {
		return err
	}
	now := api.svc.Now()
	results := make([]contest.AdminDetail, 0, len(contests))
	for _, c := range contests {
		results = append(results, c.AdminDetail(now))
	}
	return jsonData(ctx, http.StatusOK, pageResponse{Results: results, Total: total})
}

func (api *contestApi) destroy(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.QueryParam("id"))
	if err != nil || id <= 0 {
		return errIDParamRequired
	}
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), viewer, id); err != nil {
		return err
	}
	return jsonData(ctx, http.StatusOK, "Succeeded")
}

func (api *contestApi) createAnnouncement(ctx echo.Context) error {
	var data contest.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	a, err := api.svc.CreateAnnouncement(ctx.Request().Context(), viewer, data)
	if err != nil {
		return err
	}
	return jsonData(ctx, http.StatusCreated, a)
}

func (api *contestApi) updateAnnouncement(ctx echo.Context) error {
	var data contest.UpdateAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAnnouncement")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	a, err := api.svc.UpdateAnnouncement(ctx.Request().Context(), viewer, data)
	if err != nil {
		return err
	}
	return jsonData(ctx, http.StatusOK, a)
}

func (api *contestApi) adminAnnouncements(ctx echo.Context) error {
	var req announcementListRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to announcementListRequest")
	}
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	announcements, err := api.svc.AdminAnnouncements(ctx.Request().Context(), viewer, contest.AnnouncementFilter{
		ContestID: req.ContestID,
		ID:        req.ID,
		Keyword:   req.Keyword,
		MaxID:     req.MaxID,
	})
	if err != nil {
		return err
	}
	return jsonData(ctx, http.StatusOK, announcements)
}

func (api *contestApi) destroyAnnouncement(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.QueryParam("id"))
	if err != nil || id <= 0 {
		return errIDParamRequired
	}
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteAnnouncement(ctx.Request().Context(), viewer, id); err != nil {
		return err
	}
	return jsonData(ctx, http.StatusOK, "Succeeded")
}

package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

// UserHandler serves the /users/ resource.
type UserHandler struct {
	directory ports.DirectoryService
}

func NewUserHandler(directory ports.DirectoryService) *UserHandler {
	return &UserHandler{directory: directory}
}

// List handles GET /users/.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        search     query     string  false  "Matches username, email, first or last name"
// @Param        user_type  query     string  false  "client, vendor, financial, technical or admin"
// @Param        is_active  query     bool    false  "Filter by status"
// @Param        ordering   query     string  false  "Field name, prefix with - for descending"
// @Param        page_size  query     int     false  "Enables the paginated envelope"
// @Param        page       query     int     false  "1-based page number"
// @Success      200        {array}   domain.User
// @Failure      400        {object}  map[string][]string
// @Failure      403        {object}  detailResponse
// @Router       /users/ [get]
func (h *UserHandler) List(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}
	return h.list(c, filter)
}

// Scoped returns the handler for a convenience list such as /users/vendors/.
// A user_type query parameter cannot widen the scope.
//
// @Summary      List users of one type
// @Tags         users
// @Produce      json
// @Param        search     query     string  false  "Matches username, email, first or last name"
// @Param        is_active  query     bool    false  "Filter by status"
// @Param        ordering   query     string  false  "Field name, prefix with - for descending"
// @Success      200        {array}   domain.User
// @Router       /users/clients/ [get]
// @Router       /users/vendors/ [get]
// @Router       /users/financial_managers/ [get]
// @Router       /users/technical_support/ [get]
func (h *UserHandler) Scoped(userType domain.UserType) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter, err := parseFilter(c)
		if err != nil {
			return err
		}
		filter.UserType = userType
		return h.list(c, filter)
	}
}

func (h *UserHandler) list(c echo.Context, filter domain.UserFilter) error {
	users, err := h.directory.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	raw := c.QueryParam("page_size")
	if raw == "" {
		return c.JSON(http.StatusOK, users)
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size <= 0 {
		return c.JSON(http.StatusOK, users)
	}
	page := 1
	if p := c.QueryParam("page"); p != "" {
		if page, err = strconv.Atoi(p); err != nil || page < 1 {
			return echo.NewHTTPError(http.StatusNotFound, "Invalid page.")
		}
	}
	if page > lastPage(len(users), size) {
		return echo.NewHTTPError(http.StatusNotFound, "Invalid page.")
	}
	return c.JSON(http.StatusOK, paginate(c, users, page, size))
}

// Get handles GET /users/:id/.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  detailResponse
// @Router       /users/{id}/ [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.directory.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Create handles POST /users/.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        X-CSRFToken  header    string            true  "CSRF token"
// @Param        body         body      domain.UserInput  true  "New user"
// @Success      201          {object}  domain.User
// @Failure      400          {object}  map[string][]string
// @Router       /users/ [post]
func (h *UserHandler) Create(c echo.Context) error {
	var in domain.UserInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.")
	}
	user, err := h.directory.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Update handles PATCH /users/:id/. Absent keys are left unchanged.
//
// @Summary      Partially update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        X-CSRFToken  header    string            true  "CSRF token"
// @Param        id           path      int               true  "User id"
// @Param        body         body      userPatchRequest  true  "Changed fields"
// @Success      200          {object}  domain.User
// @Failure      400          {object}  map[string][]string
// @Failure      404          {object}  detailResponse
// @Router       /users/{id}/ [patch]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req userPatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.")
	}
	user, err := h.directory.Update(c.Request().Context(), id, req.toPatch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /users/:id/.
//
// @Summary      Delete a user
// @Tags         users
// @Param        X-CSRFToken  header  string  true  "CSRF token"
// @Param        id           path    int     true  "User id"
// @Success      204
// @Failure      404  {object}  detailResponse
// @Router       /users/{id}/ [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.directory.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Suspend handles POST /users/:id/suspend/.
//
// @Summary      Suspend a user and notify them
// @Tags         users
// @Produce      json
// @Param        X-CSRFToken  header    string  true  "CSRF token"
// @Param        id           path      int     true  "User id"
// @Success      200          {object}  domain.User
// @Failure      404          {object}  detailResponse
// @Router       /users/{id}/suspend/ [post]
func (h *UserHandler) Suspend(c echo.Context) error {
	return h.setActive(c, false)
}

// Activate handles POST /users/:id/activate/.
//
// @Summary      Reactivate a user and notify them
// @Tags         users
// @Produce      json
// @Param        X-CSRFToken  header    string  true  "CSRF token"
// @Param        id           path      int     true  "User id"
// @Success      200          {object}  domain.User
// @Failure      404          {object}  detailResponse
// @Router       /users/{id}/activate/ [post]
func (h *UserHandler) Activate(c echo.Context) error {
	return h.setActive(c, true)
}

func (h *UserHandler) setActive(c echo.Context, active bool) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.directory.SetActive(c.Request().Context(), id, active, actor(c), true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Stats handles GET /users/stats/.
//
// @Summary      Aggregate user counts
// @Tags         users
// @Produce      json
// @Param        extended  query     bool  false  "Include the per-type breakdown"
// @Success      200       {object}  domain.UserStats
// @Router       /users/stats/ [get]
func (h *UserHandler) Stats(c echo.Context) error {
	extended, _ := strconv.ParseBool(c.QueryParam("extended"))
	stats, err := h.directory.Stats(c.Request().Context(), extended)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// parseFilter reads the list query parameters.
func parseFilter(c echo.Context) (domain.UserFilter, error) {
	filter := domain.UserFilter{
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Ordering: c.QueryParam("ordering"),
	}
	verr := &domain.ValidationError{}

	if raw := c.QueryParam("user_type"); raw != "" {
		t, err := domain.ParseUserType(raw)
		if err != nil {
			verr.Add("user_type", "Select a valid choice. "+raw+" is not one of the available choices.")
		}
		filter.UserType = t
	}
	if raw := c.QueryParam("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			verr.Add("is_active", "Must be a valid boolean.")
		} else {
			filter.IsActive = &active
		}
	}

	if !verr.Empty() {
		return filter, verr
	}
	return filter, nil
}

func (r userPatchRequest) toPatch() ports.UserPatch {
	patch := ports.UserPatch{
		Username:        r.Username,
		Email:           r.Email,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		IsActive:        r.IsActive,
		Password:        r.Password,
		PasswordConfirm: r.PasswordConfirm,
	}
	if r.UserType != nil {
		t := domain.UserType(*r.UserType)
		patch.UserType = &t
	}
	return patch
}

// lastPage is the highest valid page number; an empty result still has page 1.
func lastPage(count, size int) int {
	if count == 0 {
		return 1
	}
	return (count-1)/size + 1
}

// paginate slices users into page number page of the given size. Links keep
// the caller's other query parameters.
func paginate(c echo.Context, users []domain.User, page, size int) userPage {
	out := userPage{Count: len(users), Results: []domain.User{}}
	start := (page - 1) * size
	if start < len(users) {
		end := min(start+size, len(users))
		out.Results = users[start:end]
	}
	if start+size < len(users) {
		out.Next = pageLink(c, page+1)
	}
	if page > 1 {
		out.Previous = pageLink(c, page-1)
	}
	return out
}

func pageLink(c echo.Context, page int) *string {
	req := c.Request()
	q := req.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{Scheme: c.Scheme(), Host: req.Host, Path: req.URL.Path, RawQuery: q.Encode()}
	link := u.String()
	return &link
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// updateMeFields are the profile fields a user may change on their own account.
var updateMeFields = []string{"name", "email", "photo"}

// passwordFields are rejected by updateMe.
var passwordFields = []string{"password", "passwordConfirm", "passwordCurrent"}

// UserHandler handles user-related routes
type UserHandler struct {
	*Resource[*models.User]
	userService UserServiceInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{
		Resource: NewResource[*models.User](userService, ResourceOptions[*models.User]{
			Name:   "users",
			Schema: repository.UserSchema,
			New:    func() *models.User { return &models.User{} },
		}),
		userService: userService,
	}
}

// CreateUser is not offered; accounts are created through signup.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if _, err := h.userService.Create(r.Context(), &models.User{}); err != nil {
		utils.RespondError(w, r, err)
		return
	}
	utils.NoContent(w)
}

// GetMe returns the current user's profile
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		utils.Unauthorized(w, constants.MsgLoginRequired)
		return
	}

	me, err := h.userService.Get(r.Context(), user.ID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, me)
}

// UpdateMe changes the name, email or photo of the current user. The body is
// JSON or a multipart form whose photo file is resized and stored.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		utils.Unauthorized(w, constants.MsgLoginRequired)
		return
	}

	var (
		req *models.UpdateMeRequest
		err error
	)
	if isMultipart(r) {
		req, err = h.updateMeFromForm(r, user)
	} else {
		req, err = updateMeFromJSON(r)
	}
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	updated, err := h.userService.UpdateMe(r.Context(), user, req)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, updated)
}

// DeleteMe deactivates the current user's account.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		utils.Unauthorized(w, constants.MsgLoginRequired)
		return
	}

	if err := h.userService.DeleteMe(r.Context(), user.ID); err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.NoContent(w)
}

func updateMeFromJSON(r *http.Request) (*models.UpdateMeRequest, error) {
	var body map[string]interface{}
	if err := utils.DecodeJSON(r, &body); err != nil {
		return nil, err
	}
	for _, f := range passwordFields {
		if _, ok := body[f]; ok {
			return nil, utils.NewBadRequestError(constants.MsgNotPasswordRoute)
		}
	}

	req := &models.UpdateMeRequest{}
	for key, v := range utils.FilterKeys(body, updateMeFields...) {
		s, ok := v.(string)
		if !ok {
			return nil, utils.NewValidationError(key, "Must be a string")
		}
		setUpdateMeField(req, key, s)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (h *UserHandler) updateMeFromForm(r *http.Request, user *models.User) (*models.UpdateMeRequest, error) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		return nil, utils.NewBadRequestError("Invalid multipart form: " + err.Error())
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	for _, f := range passwordFields {
		if _, ok := r.MultipartForm.Value[f]; ok {
			return nil, utils.NewBadRequestError(constants.MsgNotPasswordRoute)
		}
	}

	req := &models.UpdateMeRequest{}
	for _, key := range []string{"name", "email"} {
		if values, ok := r.MultipartForm.Value[key]; ok && len(values) > 0 {
			setUpdateMeField(req, key, values[0])
		}
	}

	file, _, err := r.FormFile(constants.FormFieldPhoto)
	switch {
	case err == nil:
		defer file.Close()
		url, err := h.userService.UploadPhoto(r.Context(), user.ID, file)
		if err != nil {
			return nil, err
		}
		req.Photo = &url
	case err != http.ErrMissingFile:
		return nil, utils.NewBadRequestError("Invalid photo upload: " + err.Error())
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	return req, nil
}

func setUpdateMeField(req *models.UpdateMeRequest, key, value string) {
	value = strings.TrimSpace(value)
	switch key {
	case "name":
		req.Name = &value
	case "email":
		req.Email = &value
	case "photo":
		req.Photo = &value
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get(constants.HeaderContentType), constants.ContentTypeMultipart)
}

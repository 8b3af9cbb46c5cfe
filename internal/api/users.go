package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/safar/beverage-store/internal/models"
	"github.com/safar/beverage-store/internal/store"
)

type registerRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	ProfilePic string `json:"profilePic"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		a.respondMessage(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		a.respondError(w, err)
		return
	}

	user, err := store.CreateUser(r.Context(), a.db, req.Username, req.Email, hash, models.RoleUser, req.ProfilePic)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.logger.Info("user registered", slog.Int64("user_id", user.ID))
	a.respondJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), a.db, req.Email)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Email not registered")
		return
	}

	if !a.hasher.Verify(req.Password, user.PasswordHash) {
		a.respondMessage(w, http.StatusBadRequest, "Incorrect password")
		return
	}

	token, err := a.tokens.Generate(user.ID, user.Role)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.logger.Info("user logged in", slog.Int64("user_id", user.ID), slog.String("role", user.Role))
	a.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

func (a *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	user, err := store.GetUser(r.Context(), a.db, claims.UserID)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, user)
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	user, err := store.GetUser(r.Context(), a.db, claims.UserID)
	if err != nil {
		a.respondError(w, err)
		return
	}

	var username, email, profilePic string
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			a.respondMessage(w, http.StatusBadRequest, "Invalid form data")
			return
		}
		username = r.FormValue("username")
		email = r.FormValue("email")

		if file, header, err := r.FormFile("profilePic"); err == nil {
			defer file.Close()
			name, err := a.saveUpload(file, header)
			if err != nil {
				a.respondMessage(w, http.StatusBadRequest, "Invalid image data")
				return
			}
			profilePic = name
		}
	} else {
		var req registerRequest
		if err := decodeJSON(r, &req); err != nil {
			a.respondMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		username = req.Username
		email = req.Email
	}

	if username == "" {
		username = user.Username
	}
	if email == "" {
		email = user.Email
	}
	if profilePic == "" {
		profilePic = user.ProfilePic
	}

	updated, err := store.UpdateProfile(r.Context(), a.db, claims.UserID, username, email, profilePic)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    updated,
	})
}

func (a *API) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		a.respondMessage(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		a.respondError(w, err)
		return
	}

	admin, err := store.CreateUser(r.Context(), a.db, req.Username, req.Email, hash, models.RoleAdmin, req.ProfilePic)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.logger.Info("admin created", slog.Int64("user_id", admin.ID))
	a.respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Admin user created successfully",
		"admin":   admin,
	})
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := store.ListUsers(r.Context(), a.db, models.RoleUser, page, pageSize)
	if err != nil {
		a.respondError(w, err)
		return
	}

	a.respondJSON(w, http.StatusOK, result)
}

// handleDeleteUser removes a customer account. Admin accounts cannot be
// deleted; order and review history is preserved by the schema.
func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		a.respondMessage(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := store.GetUser(r.Context(), a.db, id)
	if err != nil {
		a.respondError(w, err)
		return
	}

	if user.Role == models.RoleAdmin {
		a.respondMessage(w, http.StatusForbidden, "Admin users cannot be deleted")
		return
	}

	if err := store.DeleteUser(r.Context(), a.db, id); err != nil {
		a.respondError(w, err)
		return
	}

	a.logger.Info("user deleted", slog.Int64("user_id", id))
	a.respondMessage(w, http.StatusOK,
		"User account deleted successfully. Order history and reviews have been preserved.")
}

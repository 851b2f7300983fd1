package auth

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/cloudvid/transcriber-service/internal/apperr"
	"github.com/cloudvid/transcriber-service/internal/storage"
	"github.com/cloudvid/transcriber-service/internal/types/users"
	"github.com/cloudvid/transcriber-service/internal/utils/jwt"
	"github.com/cloudvid/transcriber-service/internal/utils/password"
	"github.com/cloudvid/transcriber-service/internal/utils/response"
)

// Unknown email and wrong password answer identically so the endpoint cannot
// be used to probe which emails are registered.
var errInvalidCredentials = errors.New("invalid email or password")

// SignUp handles user registration
// @Summary Register a new user
// @Description Register a new user account with a free or paid plan
// @Tags auth
// @Accept json
// @Produce json
// @Param user body users.SignUpRequest true "User registration details"
// @Success 201 {object} response.Response "User created successfully"
// @Failure 400 {object} response.Response "Bad request or duplicate email"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /auth/signup [post]
func SignUp(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signupReq users.SignUpRequest

		err := json.NewDecoder(r.Body).Decode(&signupReq)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		validate := validator.New()
		err = validate.Struct(signupReq)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		hashedPassword, err := password.HashPassword(signupReq.Password)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to hash password")))
			return
		}

		userID, err := storage.CreateUser(signupReq.Name, signupReq.Email, hashedPassword, signupReq.Plan)
		if err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				response.WriteJSON(w, apperr.Status(err), response.GeneralError(errors.New("email already exists")))
				return
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		slog.Info("User created", slog.String("user_id", userID))

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Successfully signed up!", nil))
	}
}

// Login handles user authentication
// @Summary Authenticate a user
// @Description Authenticate a user and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body users.SignInRequest true "User login details"
// @Success 200 {object} map[string]interface{} "Token and user info"
// @Failure 400 {object} response.Response "Invalid credentials"
// @Router /auth/login [post]
func Login(storage storage.Storage, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signinReq users.SignInRequest

		err := json.NewDecoder(r.Body).Decode(&signinReq)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		validate := validator.New()
		err = validate.Struct(signinReq)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		user, err := storage.GetUserByEmail(signinReq.Email)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errInvalidCredentials))
			return
		}

		if !password.CheckPasswordHash(signinReq.Password, user.Password) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errInvalidCredentials))
			return
		}

		token, err := jwt.CreateToken(user.ID, user.Role, user.Plan, jwtSecret)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"token": token,
			"user": map[string]interface{}{
				"id":   user.ID,
				"name": user.Name,
				"role": user.Role,
			},
		})
	}
}

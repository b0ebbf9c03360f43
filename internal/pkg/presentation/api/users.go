package api

import (
	"net/http"
	"time"

	"github.com/esmart-iot/esmart-api/internal/pkg/application"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/authentication"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/users"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/tracing"
	"github.com/esmart-iot/esmart-api/internal/pkg/presentation/api/auth"
	"github.com/esmart-iot/esmart-api/internal/pkg/presentation/api/respond"
	"github.com/esmart-iot/esmart-api/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const oauthStateCookie string = "oauth_state"

func registerUserHandler(svc users.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "register-user")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		var u types.UserCreate
		if err = decodeBody(r, &u); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		user, err := svc.Register(ctx, u)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusCreated, user)
	}
}

func loginHandler(sessions authentication.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "login")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		if err = r.ParseForm(); err != nil {
			err = application.NewError(application.ErrBadRequest, "Invalid form data")
			respond.Error(w, requestLogger, err)
			return
		}

		username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
		if username == "" || password == "" {
			err = application.NewError(application.ErrBadRequest, "username and password are required")
			respond.Error(w, requestLogger, err)
			return
		}

		token, err := sessions.Login(ctx, username, password)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, token)
	}
}

func refreshHandler(sessions authentication.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "refresh-token")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		var req types.TokenRefreshRequest
		if err = decodeBody(r, &req); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		token, err := sessions.Refresh(ctx, req.RefreshToken)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, token)
	}
}

func logoutHandler(sessions authentication.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "logout")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		err = sessions.Logout(ctx, auth.GetTokenFromContext(ctx))
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, map[string]string{"detail": "Logout successful"})
	}
}

func googleLoginHandler(google authentication.GoogleLogin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := uuid.NewString()

		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/user",
			MaxAge:   int((5 * time.Minute).Seconds()),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, google.AuthCodeURL(state), http.StatusTemporaryRedirect)
	}
}

func googleCallbackHandler(google authentication.GoogleLogin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "google-callback")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		code := r.URL.Query().Get("code")
		if code == "" {
			err = application.NewError(application.ErrBadRequest, "Authorization code not provided")
			respond.Error(w, requestLogger, err)
			return
		}

		cookie, cookieErr := r.Cookie(oauthStateCookie)
		if cookieErr != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
			err = application.NewError(application.ErrBadRequest, "Invalid OAuth state")
			respond.Error(w, requestLogger, err)
			return
		}

		http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/user", MaxAge: -1})

		result, err := google.Callback(ctx, code)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, result)
	}
}

func listUsersHandler(svc users.UserService, authorizer auth.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "list-users")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		if err = authorize(ctx, authorizer, auth.ListUsers, auth.Resource{}); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		skip, limit, err := pagination(r)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		result, err := svc.List(ctx, skip, limit)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, result)
	}
}

func getUserByEmailHandler(svc users.UserService, authorizer auth.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "get-user-by-email")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		email := r.URL.Query().Get("email")
		if email == "" {
			err = application.NewError(application.ErrBadRequest, "email is required")
			respond.Error(w, requestLogger, err)
			return
		}

		if err = authorize(ctx, authorizer, auth.ReadUser, auth.Resource{Email: email}); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		user, err := svc.GetByEmail(ctx, email)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, user)
	}
}

func changePasswordHandler(svc users.UserService, authorizer auth.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "change-password")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		var req types.ChangePassword
		if err = decodeBody(r, &req); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		if err = authorize(ctx, authorizer, auth.ChangePassword, auth.Resource{Email: req.Email}); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		err = svc.ChangePassword(ctx, req.Email, req.NewPassword)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
	}
}

func getUserHandler(svc users.UserService, authorizer auth.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "get-user")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		userID := chi.URLParam(r, "id")

		if err = authorize(ctx, authorizer, auth.ReadUser, auth.Resource{Owner: userID}); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		user, err := svc.GetByID(ctx, userID)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, user)
	}
}

func updateUserHandler(svc users.UserService, authorizer auth.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "update-user")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		userID := chi.URLParam(r, "id")

		if err = authorize(ctx, authorizer, auth.UpdateUser, auth.Resource{Owner: userID}); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		var patch types.UserUpdate
		if err = decodeBody(r, &patch); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		if patch.Role != nil || patch.IsActive != nil {
			if err = authorize(ctx, authorizer, auth.ElevateUser, auth.Resource{Owner: userID}); err != nil {
				respond.Error(w, requestLogger, err)
				return
			}
		}

		user, err := svc.Update(ctx, userID, patch)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, user)
	}
}

func deleteUserHandler(svc users.UserService, authorizer auth.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "delete-user")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		userID := chi.URLParam(r, "id")

		if err = authorize(ctx, authorizer, auth.DeleteUser, auth.Resource{Owner: userID}); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		err = svc.Delete(ctx, userID)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

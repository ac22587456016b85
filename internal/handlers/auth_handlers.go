package handlers

import (
	"net/http"

	"journalite/internal/forms"
	"journalite/internal/utils"
)

func (s *Server) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.sessionFor(r) != nil {
		redirect(w, r, "/")
		return
	}
	s.render(w, http.StatusOK, "login.html", authPage{pageData: s.basePage(r, "Sign in")})
}

func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	form := forms.LoginForm{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	data := authPage{
		pageData: s.basePage(r, "Sign in"),
		Form:     authFormValues{Email: form.Email},
	}

	if errs := form.Validate(); len(errs) > 0 {
		data.Errors = errs
		s.render(w, http.StatusUnprocessableEntity, "login.html", data)
		return
	}

	session, err := s.Identity.SignIn(r.Context(), form.Email, form.Password)
	if err != nil {
		data.ErrorMessage = utils.UserMessage(err)
		s.render(w, http.StatusUnauthorized, "login.html", data)
		return
	}

	if err := s.Sessions.SetSessionCookie(w, session); err != nil {
		s.Logger.Error().Err(err).Msg("could not issue session cookie")
		data.ErrorMessage = "Could not sign you in right now. Please try again."
		s.render(w, http.StatusInternalServerError, "login.html", data)
		return
	}
	s.Logger.Info().Str("userId", session.UserID).Msg("reader signed in")
	redirect(w, r, "/")
}

func (s *Server) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if s.sessionFor(r) != nil {
		redirect(w, r, "/")
		return
	}
	s.render(w, http.StatusOK, "register.html", authPage{pageData: s.basePage(r, "Sign up")})
}

func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	form := forms.RegisterForm{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Confirm:  r.FormValue("confirm"),
	}
	data := authPage{
		pageData: s.basePage(r, "Sign up"),
		Form:     authFormValues{Email: form.Email},
	}

	if errs := form.Validate(); len(errs) > 0 {
		data.Errors = errs
		s.render(w, http.StatusUnprocessableEntity, "register.html", data)
		return
	}

	session, err := s.Identity.SignUp(r.Context(), form.Email, form.Password)
	if err != nil {
		data.ErrorMessage = utils.UserMessage(err)
		status := utils.AppErrorToHTTPStatus(errorCode(err))
		s.render(w, status, "register.html", data)
		return
	}

	if err := s.Sessions.SetSessionCookie(w, session); err != nil {
		s.Logger.Error().Err(err).Msg("could not issue session cookie")
		data.ErrorMessage = "Account created, but sign-in failed. Please sign in."
		s.render(w, http.StatusInternalServerError, "register.html", data)
		return
	}
	s.Logger.Info().Str("userId", session.UserID).Msg("account registered")
	redirect(w, r, "/?welcome=1")
}

func (s *Server) HandleForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "forgot_password.html", authPage{pageData: s.basePage(r, "Reset password")})
}

func (s *Server) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	form := forms.RecoveryForm{Email: r.FormValue("email")}
	data := authPage{
		pageData: s.basePage(r, "Reset password"),
		Form:     authFormValues{Email: form.Email},
	}

	if errs := form.Validate(); len(errs) > 0 {
		data.Errors = errs
		s.render(w, http.StatusUnprocessableEntity, "forgot_password.html", data)
		return
	}

	// Deliberately the same outcome whether or not the account exists.
	if err := s.Identity.SendPasswordReset(r.Context(), form.Email); err != nil {
		s.Logger.Warn().Err(err).Msg("password reset request failed")
	}
	redirect(w, r, "/?recovery=1")
}

func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.Identity.SignOut(r.Context()); err != nil {
		s.Logger.Warn().Err(err).Msg("provider sign-out failed")
	}
	s.Sessions.ClearSessionCookie(w)
	redirect(w, r, "/")
}

// HandleFederatedSignIn hands the reader to the identity provider's
// hosted flow for the given provider (OIDC).
func (s *Server) HandleFederatedSignIn(w http.ResponseWriter, r *http.Request) {
	returnTo := "http://" + r.Host + "/"
	if r.TLS != nil {
		returnTo = "https://" + r.Host + "/"
	}
	location, err := s.Identity.FederatedSignInURL(r.Context(), returnTo)
	if err != nil {
		s.renderError(w, r, http.StatusBadGateway, false, utils.UserMessage(err))
		return
	}
	redirect(w, r, location)
}

func errorCode(err error) string {
	if appErr, ok := err.(*utils.AppError); ok {
		return appErr.Code
	}
	return ""
}

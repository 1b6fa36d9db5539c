// Package api binds the login, registration and deregistration operations
// to router events.
package api

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/userreg/internal/logging"
	"github.com/dmitrijs2005/userreg/internal/server/router"
	"github.com/dmitrijs2005/userreg/internal/server/services"
	"github.com/dmitrijs2005/userreg/internal/server/validation"
)

type Authenticator interface {
	Login(ctx context.Context, in validation.LoginInput) (*services.LoginResult, error)
}

type Registrar interface {
	Register(ctx context.Context, in validation.RegistrationInput) (*services.RegistrationResult, error)
	Deregister(ctx context.Context, in validation.DeregistrationInput) (*services.DeregistrationResult, error)
}

const (
	LoginPath          = "/login"
	RegistrationsPath  = "/registrations"
	RegistrationByMail = "/registrations/{email}"
)

type Handlers struct {
	auth Authenticator
	reg  Registrar
	log  logging.Logger
}

func NewHandlers(auth Authenticator, reg Registrar, log logging.Logger) *Handlers {
	return &Handlers{auth: auth, reg: reg, log: log.With("module", "api")}
}

// Routes registers every operation on r.
func (h *Handlers) Routes(r *router.Router) {
	r.Handle(http.MethodGet, LoginPath, h.Login)
	r.Handle(http.MethodPost, RegistrationsPath, h.Register)
	r.Handle(http.MethodDelete, RegistrationByMail, h.Deregister)
}

func (h *Handlers) Login(ctx context.Context, ev router.Event) (router.Response, error) {
	in, err := validation.ParseLogin(ev.QueryStringParameters)
	if err != nil {
		h.log.Info(ctx, "invalid login request", "error", err)
		return router.Response{}, err
	}

	res, err := h.auth.Login(ctx, in)
	if err != nil {
		return router.Response{}, err
	}
	return router.JSON(http.StatusOK, res), nil
}

func (h *Handlers) Register(ctx context.Context, ev router.Event) (router.Response, error) {
	in, err := validation.ParseRegistration(ev.Body)
	if err != nil {
		h.log.Info(ctx, "invalid registration request", "error", err)
		return router.Response{}, err
	}

	res, err := h.reg.Register(ctx, in)
	if err != nil {
		return router.Response{}, err
	}
	return router.JSON(http.StatusCreated, res), nil
}

func (h *Handlers) Deregister(ctx context.Context, ev router.Event) (router.Response, error) {
	in, err := validation.ParseDeregistration(ev.PathParameters)
	if err != nil {
		h.log.Info(ctx, "invalid deregistration request", "error", err)
		return router.Response{}, err
	}

	res, err := h.reg.Deregister(ctx, in)
	if err != nil {
		return router.Response{}, err
	}
	return router.JSON(http.StatusOK, res), nil
}

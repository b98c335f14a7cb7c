package app

import (
	"fmt"

	"psych-assessment-service/internal/domain"
)

// Page is a top-level screen of the client application.
type Page string

const (
	PageAuth       Page = "auth"
	PageConsent    Page = "consent"
	PageAssessment Page = "assessment"
	PageDashboard  Page = "dashboard"
	PageProfile    Page = "profile"
)

// NavEvent is something that moves the client between pages.
type NavEvent string

const (
	EventLogin         NavEvent = "login"
	EventSignUp        NavEvent = "sign_up"
	EventDemoLogin     NavEvent = "demo_login"
	EventAcceptConsent NavEvent = "accept_consent"
	EventOpen          NavEvent = "open"
	EventSubmitted     NavEvent = "submitted"
	EventSignOut       NavEvent = "sign_out"
	EventAuthLost      NavEvent = "auth_lost"
)

// Navigator tracks which page a client is on and who is signed in.
// Assessment pages are only reachable once consent has been given in the
// current login.
type Navigator struct {
	page      Page
	user      *domain.User
	consented bool
}

func NewNavigator() *Navigator {
	return &Navigator{page: PageAuth}
}

func (n *Navigator) Page() Page { return n.page }

// User returns the signed-in identity, if any.
func (n *Navigator) User() (domain.User, bool) {
	if n.user == nil {
		return domain.User{}, false
	}
	return *n.user, true
}

// Login signs in an existing user and lands on the dashboard.
// Returning users have consented at sign-up.
func (n *Navigator) Login(user domain.User) (Page, error) {
	if n.user != nil {
		return n.page, n.invalid(EventLogin)
	}
	n.user = &user
	n.consented = true
	n.page = PageDashboard
	return n.page, nil
}

// SignUp and DemoLogin both require consent before anything else.
func (n *Navigator) SignUp(user domain.User) (Page, error) {
	if n.user != nil {
		return n.page, n.invalid(EventSignUp)
	}
	n.user = &user
	n.consented = false
	n.page = PageConsent
	return n.page, nil
}

func (n *Navigator) DemoLogin(user domain.User) (Page, error) {
	if n.user != nil || !user.IsDemo {
		return n.page, n.invalid(EventDemoLogin)
	}
	n.user = &user
	n.consented = false
	n.page = PageConsent
	return n.page, nil
}

func (n *Navigator) AcceptConsent() (Page, error) {
	if n.page != PageConsent {
		return n.page, n.invalid(EventAcceptConsent)
	}
	n.consented = true
	n.page = PageAssessment
	return n.page, nil
}

// Open moves to page from the header menu.
func (n *Navigator) Open(page Page) (Page, error) {
	if n.user == nil {
		return n.page, n.invalid(EventOpen)
	}
	switch page {
	case PageAssessment, PageDashboard:
		if !n.consented {
			return n.page, n.invalid(EventOpen)
		}
	case PageProfile:
	default:
		return n.page, n.invalid(EventOpen)
	}
	n.page = page
	return n.page, nil
}

// Submitted follows a successful assessment submission.
func (n *Navigator) Submitted() (Page, error) {
	if n.page != PageAssessment {
		return n.page, n.invalid(EventSubmitted)
	}
	n.page = PageDashboard
	return n.page, nil
}

func (n *Navigator) SignOut() Page {
	n.reset()
	return n.page
}

// AuthLost handles the identity provider reporting no current user.
func (n *Navigator) AuthLost() Page {
	n.reset()
	return n.page
}

func (n *Navigator) reset() {
	n.user = nil
	n.consented = false
	n.page = PageAuth
}

func (n *Navigator) invalid(event NavEvent) error {
	return fmt.Errorf("%w: %s from %s", domain.ErrInvalidTransition, event, n.page)
}

package auth

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/dmitrijs2005/modelkeeper/internal/server/models"
)

// Kind selects which lookup a Target refers to.
type Kind int

const (
	KindAccount Kind = iota + 1
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindAccount:
		return "account"
	case KindModel:
		return "model"
	default:
		return "unknown"
	}
}

// Target identifies the resource a request wants to see.
type Target struct {
	Kind Kind
	ID   int64
}

func AccountTarget(id int64) Target { return Target{Kind: KindAccount, ID: id} }
func ModelTarget(id int64) Target   { return Target{Kind: KindModel, ID: id} }

// Outcome is the verdict of Authorize. The zero value is not a verdict and
// Decision.Err treats it as an internal error.
type Outcome int

const (
	Allowed Outcome = iota + 1
	Unauthenticated
	NotFound
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Unauthenticated:
		return "unauthenticated"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Decision is an Outcome plus, when Allowed, the resolved resource.
type Decision struct {
	Outcome Outcome
	Account *models.Account
	Model   *models.Model
}

// Err maps the decision to the matching common sentinel, nil when Allowed.
func (d Decision) Err() error {
	switch d.Outcome {
	case Allowed:
		return nil
	case Unauthenticated:
		return common.ErrorUnauthenticated
	case NotFound:
		return common.ErrorNotFound
	case Forbidden:
		return common.ErrorForbidden
	default:
		return common.ErrorInternal
	}
}

// Lookup is the read-only storage access the guard needs. Both methods
// return common.ErrorNotFound for ids that do not resolve.
type Lookup interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	GetModel(ctx context.Context, id int64) (*models.Model, error)
}

// Authorize decides whether caller may see target.
//
// The checks run in a fixed order: caller present, target exists, caller owns
// target. A missing resource is therefore NotFound for every authenticated
// caller, and storage is not touched for anonymous ones. Accounts have no
// owner and are visible to any authenticated caller.
//
// The returned error is reserved for storage failures other than not-found.
func Authorize(ctx context.Context, caller *Identity, target Target, lookup Lookup) (Decision, error) {
	if caller == nil {
		return Decision{Outcome: Unauthenticated}, nil
	}

	switch target.Kind {
	case KindAccount:
		a, err := lookup.GetAccount(ctx, target.ID)
		if err != nil {
			return notFoundOr(err)
		}
		return Decision{Outcome: Allowed, Account: a}, nil

	case KindModel:
		m, err := lookup.GetModel(ctx, target.ID)
		if err != nil {
			return notFoundOr(err)
		}
		if !m.OwnedBy(caller.AccountID) {
			return Decision{Outcome: Forbidden}, nil
		}
		return Decision{Outcome: Allowed, Model: m}, nil

	default:
		return Decision{}, errors.New("unknown target kind")
	}
}

func notFoundOr(err error) (Decision, error) {
	if errors.Is(err, common.ErrorNotFound) {
		return Decision{Outcome: NotFound}, nil
	}
	return Decision{}, err
}

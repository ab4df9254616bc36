package hcloud

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-logr/logr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/kzgceremony/seqdeploy/internal/util/retry"
)

// ErrUpToDate is returned by an EnsureOperation's Update when the existing
// resource already matches the desired state.
var ErrUpToDate = errors.New("already up to date")

// CreateResult wraps the result of a resource creation operation.
// Either Action or Actions may be set; both are awaited.
type CreateResult[T any] struct {
	Resource T
	Action   *hcloud.Action
	Actions  []*hcloud.Action
}

// DeleteOperation deletes a named resource of any type.
//
//	return (&DeleteOperation[*hcloud.Volume]{
//	    Name:         name,
//	    ResourceType: "volume",
//	    Get:          c.client.Volume.Get,
//	    Delete:       c.client.Volume.Delete,
//	}).Execute(ctx, c)
type DeleteOperation[T any] struct {
	Name         string
	ResourceType string

	// Get retrieves the resource by name. A nil resource means it does not exist.
	Get func(ctx context.Context, name string) (T, *hcloud.Response, error)

	// Delete removes the resource.
	Delete func(ctx context.Context, resource T) (*hcloud.Response, error)
}

// Execute deletes the resource, succeeding if it does not exist. Locked and
// rate-limited requests are retried with exponential backoff until the
// delete timeout.
func (op *DeleteOperation[T]) Execute(ctx context.Context, client *RealClient) error {
	ctx, cancel := context.WithTimeout(ctx, client.timeouts.Delete)
	defer cancel()

	log := logr.FromContextOrDiscard(ctx).WithValues(op.ResourceType, op.Name)

	return retry.WithExponentialBackoff(ctx, func() error {
		resource, _, err := op.Get(ctx, op.Name)
		if err != nil {
			return retry.Fatal(fmt.Errorf("failed to get %s: %w", op.ResourceType, err))
		}

		if reflect.ValueOf(resource).IsNil() {
			log.V(1).Info("already absent")
			return nil
		}

		if _, err := op.Delete(ctx, resource); err != nil {
			if isRetryable(err) {
				return err
			}
			return retry.Fatal(fmt.Errorf("failed to delete %s: %w", op.ResourceType, err))
		}
		log.Info("deleted")
		return nil
	},
		retry.WithName("delete "+op.ResourceType),
		retry.WithLogger(log),
		retry.WithMaxRetries(client.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(client.timeouts.RetryInitialDelay))
}

// EnsureOperation is get-or-create for any resource, with optional
// validation and update of an existing resource.
//
// Validate runs before Update; a validation error aborts without changes.
// Update runs only when both Update and UpdateOptsMapper are set.
type EnsureOperation[T any, CreateOpts any, UpdateOpts any] struct {
	Name         string
	ResourceType string

	// Get retrieves the resource by name. A nil resource means it does not exist.
	Get func(ctx context.Context, name string) (T, *hcloud.Response, error)

	// Create creates the resource with the given options.
	Create func(ctx context.Context, opts CreateOpts) (*CreateResult[T], *hcloud.Response, error)

	// Update brings an existing resource to the desired state (optional). It
	// returns ErrUpToDate when nothing had to change.
	Update func(ctx context.Context, resource T, opts UpdateOpts) ([]*hcloud.Action, *hcloud.Response, error)

	// Validate rejects an existing resource that cannot be reconciled (optional).
	Validate func(resource T) error

	// CreateOptsMapper builds the create options.
	CreateOptsMapper func() CreateOpts

	// UpdateOptsMapper builds the update options from the existing resource.
	UpdateOptsMapper func(resource T) UpdateOpts
}

// Execute returns the existing resource, validated and updated, or creates it.
func (op *EnsureOperation[T, CreateOpts, UpdateOpts]) Execute(ctx context.Context, client *RealClient) (T, error) {
	var zero T
	log := logr.FromContextOrDiscard(ctx).WithValues(op.ResourceType, op.Name)

	resource, _, err := op.Get(ctx, op.Name)
	if err != nil {
		return zero, fmt.Errorf("failed to get %s: %w", op.ResourceType, err)
	}

	if !reflect.ValueOf(resource).IsNil() {
		if op.Validate != nil {
			if err := op.Validate(resource); err != nil {
				return zero, fmt.Errorf("%s %s: %w", op.ResourceType, op.Name, err)
			}
		}

		if op.Update != nil && op.UpdateOptsMapper != nil {
			actions, _, err := op.Update(ctx, resource, op.UpdateOptsMapper(resource))
			switch {
			case errors.Is(err, ErrUpToDate):
				log.V(1).Info("up to date")
				return resource, nil
			case err != nil:
				return zero, fmt.Errorf("failed to update %s: %w", op.ResourceType, err)
			}
			if err := waitForActions(ctx, client.client, actions...); err != nil {
				return zero, fmt.Errorf("failed to wait for %s update: %w", op.ResourceType, err)
			}
			log.Info("updated")
		} else {
			log.V(1).Info("exists")
		}

		return resource, nil
	}

	result, _, err := op.Create(ctx, op.CreateOptsMapper())
	if err != nil {
		return zero, fmt.Errorf("failed to create %s: %w", op.ResourceType, err)
	}

	if err := waitForActionResult(ctx, client.client, result); err != nil {
		return zero, fmt.Errorf("failed to wait for %s creation: %w", op.ResourceType, err)
	}
	log.Info("created")

	return result.Resource, nil
}

// waitForActions waits for zero or more actions to complete.
func waitForActions(ctx context.Context, client *hcloud.Client, actions ...*hcloud.Action) error {
	if len(actions) == 0 {
		return nil
	}
	return client.Action.WaitFor(ctx, actions...)
}

// waitForActionResult waits for the actions of a CreateResult.
func waitForActionResult[T any](ctx context.Context, client *hcloud.Client, result *CreateResult[T]) error {
	if result.Action != nil {
		return client.Action.WaitFor(ctx, result.Action)
	}
	return waitForActions(ctx, client, result.Actions...)
}

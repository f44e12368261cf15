package identity_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/internal/identity"
)

type fakeProvider struct {
	updates    []identity.UpdateUserRequest
	provisions []identity.ProvisionRequest
	updateErr  error
	created    bool
}

func (f *fakeProvider) Provision(_ context.Context, in identity.ProvisionRequest) (*identity.ProvisionResult, error) {
	f.provisions = append(f.provisions, in)
	res := &identity.ProvisionResult{Email: in.Email, Created: f.created}
	if f.created {
		pw := "generated1"
		res.Password = &pw
	}
	return res, nil
}

func (f *fakeProvider) UpdateUser(_ context.Context, in identity.UpdateUserRequest) error {
	f.updates = append(f.updates, in)
	return f.updateErr
}

var _ = Describe("Synchronizer", func() {
	var (
		provider *fakeProvider
		syncer   *identity.Synchronizer
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		provider = &fakeProvider{}
		testLog := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		syncer = identity.NewSynchronizer(provider, time.Second, testLog)
	})

	It("does nothing when neither roles nor email changed", func() {
		res := syncer.Reconcile(ctx, identity.Change{OldEmail: "a@x.com", NewEmail: "A@X.com"})
		Expect(res.Operation).To(Equal(identity.OperationNone))
		Expect(provider.updates).To(BeEmpty())
	})

	It("renames the account when only the email changed", func() {
		res := syncer.Reconcile(ctx, identity.Change{OldEmail: "a@x.com", NewEmail: "b@x.com"})
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(provider.updates).To(Equal([]identity.UpdateUserRequest{{Email: "a@x.com", NewEmail: "b@x.com"}}))
	})

	It("sends the derived roles when the placement changed", func() {
		syncer.Reconcile(ctx, identity.Change{
			OldEmail: "a@x.com", NewEmail: "a@x.com", RoleAffecting: true,
			Roles: []user.Role{user.RoleHead},
		})
		Expect(provider.updates).To(HaveLen(1))
		Expect(provider.updates[0].NewEmail).To(BeEmpty())
		Expect(provider.updates[0].Roles).To(Equal([]string{"HEAD"}))
	})

	It("provisions a placed person the provider does not know", func() {
		provider.updateErr = identity.ErrUserNotFound
		provider.created = true

		res := syncer.Reconcile(ctx, identity.Change{
			OldEmail: "a@x.com", NewEmail: "b@x.com", FullName: "Ada L",
			RoleAffecting: true, Placed: true, Roles: []user.Role{user.RoleEmployee},
		})
		Expect(res.Operation).To(Equal(identity.OperationProvision))
		Expect(res.Password).To(HaveValue(Equal("generated1")))
		Expect(provider.provisions).To(HaveLen(1))
		Expect(provider.provisions[0].Email).To(Equal("b@x.com"))
	})

	It("does not provision when the person is not placed", func() {
		provider.updateErr = identity.ErrUserNotFound

		res := syncer.Reconcile(ctx, identity.Change{
			OldEmail: "a@x.com", NewEmail: "a@x.com", RoleAffecting: true,
			Roles: []user.Role{user.RoleEmployee},
		})
		Expect(res.Err).To(MatchError(identity.ErrUserNotFound))
		Expect(provider.provisions).To(BeEmpty())
	})

	It("reports other failures without provisioning", func() {
		provider.updateErr = errors.New("boom")

		res := syncer.Reconcile(ctx, identity.Change{
			OldEmail: "a@x.com", NewEmail: "a@x.com", RoleAffecting: true, Placed: true,
		})
		Expect(res.Err).To(HaveOccurred())
		Expect(provider.provisions).To(BeEmpty())
	})

	It("ensures provisioning idempotently", func() {
		res := syncer.EnsureProvisioned(ctx, "a@x.com", "Ada L", []user.Role{user.RoleHead})
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.Password).To(BeNil())
		Expect(provider.provisions[0].Roles).To(Equal([]string{"HEAD"}))
	})
})

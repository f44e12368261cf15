package user_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/personnel-suite/internal/core/user"
)

var _ = Describe("IsHeadTitle", func() {
	DescribeTable("matches the head title of the same department",
		func(department, title string, expected bool) {
			Expect(user.IsHeadTitle(department, title)).To(Equal(expected))
		},
		Entry("exact title", "Engineering", "Head of Engineering", true),
		Entry("lowercase title", "Engineering", "head of engineering", true),
		Entry("surrounding spaces", " Engineering ", "  Head of Engineering ", true),
		Entry("head of another department", "Engineering", "Head of Sales", false),
		Entry("ordinary title", "Engineering", "Engineer", false),
		Entry("no department", "", "Head of Engineering", false),
		Entry("no title", "Engineering", "", false),
	)
})

var _ = Describe("DeriveRoles", func() {
	DescribeTable("maps a placement to roles",
		func(department, title string, expected []user.Role) {
			Expect(user.DeriveRoles(department, title)).To(Equal(expected))
		},
		Entry("head of engineering", "Engineering", "Head of Engineering", []user.Role{user.RoleHead}),
		Entry("head of HR", "HR", "Head of HR", []user.Role{user.RoleHR, user.RoleHead}),
		Entry("HR specialist", "HR", "HR Specialist", []user.Role{user.RoleEmployee}),
		Entry("head title outside its department", "Engineering", "Head of Sales", []user.Role{user.RoleEmployee}),
		Entry("no placement", "", "", []user.Role{user.RoleEmployee}),
	)

	It("ranks the head of HR as HR", func() {
		Expect(user.PrimaryRole(user.DeriveRoles("HR", "head of hr"))).To(Equal(user.RoleHR))
	})
})

var _ = Describe("Principal", func() {
	It("checks both the primary role and the role set", func() {
		p := &user.Principal{Email: "a@x.com", Role: user.RoleHR, Roles: []user.Role{user.RoleHR, user.RoleHead}}
		Expect(p.HasRole(user.RoleHead)).To(BeTrue())
		Expect(p.HasRole(user.RoleAdmin)).To(BeFalse())
		Expect(p.IsAdmin()).To(BeFalse())

		var nobody *user.Principal
		Expect(nobody.HasRole(user.RoleEmployee)).To(BeFalse())
	})

	It("parses role names case-insensitively", func() {
		r, ok := user.ParseRole(" admin ")
		Expect(ok).To(BeTrue())
		Expect(r).To(Equal(user.RoleAdmin))
		_, ok = user.ParseRole("OWNER")
		Expect(ok).To(BeFalse())
	})
})

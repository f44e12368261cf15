package notification_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/personnel-suite/internal/core/events"
	"github.com/frahmantamala/personnel-suite/internal/notification"
)

var _ = Describe("Renderer", func() {
	var renderer *notification.Renderer

	BeforeEach(func() {
		var err error
		renderer, err = notification.NewRenderer()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("PersonUpdate", func() {
		It("lists every change with labels and formatted values", func() {
			msg, err := renderer.PersonUpdate(events.PersonChanged{
				PersonEmail:   "jane@example.com",
				PersonName:    "Jane Doe",
				UpdatedByName: "Admin",
				UpdatedAt:     time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC),
				Changes: []events.FieldChange{
					{Field: "salary", Old: strPtr("10000"), New: strPtr("12345")},
					{Field: "phoneNumber", Old: nil, New: strPtr("0812")},
				},
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(msg.To).To(Equal("jane@example.com"))
			Expect(msg.Subject).To(Equal("Profile Update Notification"))
			Expect(msg.Template).To(Equal(notification.TemplatePersonUpdate))
			Expect(msg.HTML).To(ContainSubstring("Jane Doe"))
			Expect(msg.HTML).To(ContainSubstring("04-03-2026 09:30"))
			Expect(msg.HTML).To(ContainSubstring("$12,345"))
			Expect(msg.HTML).To(ContainSubstring("Phone Number"))
			Expect(msg.HTML).To(ContainSubstring(notification.NotProvided))
		})
	})

	Describe("TaskAssignment", func() {
		It("falls back to Admin and General", func() {
			due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
			msg, err := renderer.TaskAssignment(events.TaskAssigned{
				Title:         "Quarterly report",
				Priority:      "HIGH",
				DueDate:       &due,
				AssigneeEmail: "bob@example.com",
				AssigneeName:  "Bob",
			}, time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC))
			Expect(err).NotTo(HaveOccurred())

			Expect(msg.Subject).To(Equal("New Task Assignment: Quarterly report"))
			Expect(msg.HTML).To(ContainSubstring("Admin"))
			Expect(msg.HTML).To(ContainSubstring("General"))
			Expect(msg.HTML).To(ContainSubstring("01-04-2026"))
			Expect(msg.HTML).To(ContainSubstring("01-03-2026 14:05"))
		})
	})

	Describe("MeetingInvitation", func() {
		It("renders one mail per distinct non-blank participant", func() {
			msgs, err := renderer.MeetingInvitation(events.MeetingInvitation{
				Title:             "Planning",
				Day:               "2026-05-20",
				StartTime:         "9:00",
				EndTime:           "10:30:00",
				ParticipantEmails: []string{"a@example.com", "", "b@example.com", "a@example.com"},
				ParticipantNames:  []string{"Alice", "Bob"},
				EmailToName:       map[string]string{"a@example.com": "Alice"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))

			Expect(msgs[0].To).To(Equal("a@example.com"))
			Expect(msgs[0].Subject).To(Equal("Meeting Invitation: Planning"))
			Expect(msgs[0].HTML).To(ContainSubstring("Hello Alice"))
			Expect(msgs[0].HTML).To(ContainSubstring("20-05-2026"))
			Expect(msgs[0].HTML).To(ContainSubstring("09:00 - 10:30"))
			Expect(msgs[0].HTML).To(ContainSubstring("Alice, Bob"))

			Expect(msgs[1].To).To(Equal("b@example.com"))
			Expect(msgs[1].HTML).To(ContainSubstring("Hello Participant"))
		})

		It("renders nothing without participants", func() {
			msgs, err := renderer.MeetingInvitation(events.MeetingInvitation{Title: "Solo", Day: "2026-05-20"})
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(BeEmpty())
		})
	})

	Describe("UserProvisioned", func() {
		It("includes the password and defaults the name", func() {
			msg, err := renderer.UserProvisioned(events.UserProvisioned{Email: "new@example.com", Password: "s3cr3tpass"})
			Expect(err).NotTo(HaveOccurred())
			Expect(msg.Subject).To(Equal("Your Account Has Been Created"))
			Expect(msg.HTML).To(ContainSubstring("Welcome User"))
			Expect(msg.HTML).To(ContainSubstring("s3cr3tpass"))
		})
	})
})

package meeting_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	meetingDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/meeting"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	titleDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/internal/meeting"
	"github.com/frahmantamala/personnel-suite/internal/meeting/postgres"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func newTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	Expect(err).NotTo(HaveOccurred())

	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	Expect(db.AutoMigrate(
		&departmentDatamodel.Department{},
		&titleDatamodel.Title{},
		&personDatamodel.Person{},
		&meetingDatamodel.Meeting{},
	)).To(Succeed())
	return db
}

func as(email string) context.Context {
	return apperrors.ContextWithPrincipal(context.Background(), &user.Principal{
		Email: email,
		Role:  user.RoleEmployee,
		Roles: []user.Role{user.RoleEmployee},
	})
}

var _ = Describe("Service", func() {
	var (
		db        *gorm.DB
		publisher *recordingPublisher
		service   *meeting.Service
		now       time.Time
		sales     *departmentDatamodel.Department
		ada       *personDatamodel.Person
		bob       *personDatamodel.Person
		cy        *personDatamodel.Person
	)

	BeforeEach(func() {
		db = newTestDB()
		publisher = &recordingPublisher{}
		testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		sales = &departmentDatamodel.Department{Name: "Sales", Color: "#00AA00"}
		Expect(db.Create(sales).Error).To(Succeed())

		ada = &personDatamodel.Person{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
		bob = &personDatamodel.Person{FirstName: "Bob", LastName: "Stone", Email: "bob@example.com"}
		cy = &personDatamodel.Person{FirstName: "Cy", LastName: "Young", Email: "cy@example.com"}
		for _, p := range []*personDatamodel.Person{ada, bob, cy} {
			Expect(db.Omit("Department", "Title").Create(p).Error).To(Succeed())
		}

		now = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
		service = meeting.NewService(postgres.NewMeetingRepository(db), publisher, testLogger)
		meeting.SetClock(service, func() time.Time { return now })
	})

	request := func(day, start, end string, participants ...int64) meeting.CreateMeetingRequest {
		return meeting.CreateMeetingRequest{
			Title:          "Planning",
			Day:            day,
			StartTime:      start,
			EndTime:        end,
			ParticipantIDs: participants,
		}
	}

	Describe("CreateMeeting", func() {
		It("stores the meeting and invites the participants", func() {
			req := request("2026-03-11", "09:00", "10:00", bob.ID, cy.ID, 999)
			req.DepartmentID = &sales.ID
			req.Location = "Room 4"

			m, err := service.CreateMeeting(as("ada@example.com"), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Status).To(Equal(meeting.StatusBefore))
			Expect(m.Organizer.Email).To(Equal("ada@example.com"))
			Expect(m.Department.Name).To(Equal("Sales"))
			Expect(m.Participants).To(HaveLen(2))

			var stored meetingDatamodel.Meeting
			Expect(db.Preload("Participants").First(&stored, m.ID).Error).To(Succeed())
			Expect(stored.Participants).To(HaveLen(2))

			Expect(publisher.events).To(HaveLen(1))
			evt := publisher.events[0].(*events.MeetingInvitationEvent)
			Expect(evt.Day).To(Equal("2026-03-11"))
			Expect(evt.OrganizerName).To(Equal("Ada Lovelace"))
			Expect(evt.DepartmentName).To(Equal("Sales"))
			Expect(evt.ParticipantEmails).To(Equal([]string{"bob@example.com", "cy@example.com"}))
			Expect(evt.ParticipantNames).To(Equal([]string{"Bob Stone", "Cy Young"}))
			Expect(evt.EmailToName).To(HaveKeyWithValue("ada@example.com", "Ada Lovelace"))
			Expect(evt.EmailToName).To(HaveKeyWithValue("cy@example.com", "Cy Young"))
		})

		It("uses the default labels for an admin without a person record", func() {
			_, err := service.CreateMeeting(as("admin@example.com"), request("2026-03-11", "09:00", "10:00", bob.ID))
			Expect(err).NotTo(HaveOccurred())

			evt := publisher.events[0].(*events.MeetingInvitationEvent)
			Expect(evt.OrganizerName).To(Equal("Admin"))
			Expect(evt.DepartmentName).To(Equal("General"))
		})

		It("does not publish an invitation without participants", func() {
			_, err := service.CreateMeeting(as("ada@example.com"), request("2026-03-11", "09:00", "10:00"))
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.events).To(BeEmpty())
		})

		It("rejects a meeting that already started", func() {
			_, err := service.CreateMeeting(as("ada@example.com"), request("2026-03-10", "10:00", "11:00"))
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeInvalidMeetingWindow))
		})

		It("rejects an end before the start", func() {
			_, err := service.CreateMeeting(as("ada@example.com"), request("2026-03-11", "10:00", "10:00"))
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeInvalidMeetingWindow))
		})

		It("rejects malformed clock values", func() {
			_, err := service.CreateMeeting(as("ada@example.com"), request("2026-03-11", "9am", "10:00"))
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeValidationFailed))
		})

		It("rejects an unknown department", func() {
			missing := int64(999)
			req := request("2026-03-11", "09:00", "10:00")
			req.DepartmentID = &missing
			_, err := service.CreateMeeting(as("ada@example.com"), req)
			Expect(err).To(MatchError(apperrors.ErrDepartmentNotFound))
		})
	})

	Describe("listing", func() {
		seed := func(title, day, start string, organizer *personDatamodel.Person, participants ...*personDatamodel.Person) {
			d, err := time.Parse("2006-01-02", day)
			Expect(err).NotTo(HaveOccurred())
			m := &meetingDatamodel.Meeting{
				Title:        title,
				Day:          d,
				StartTime:    start,
				EndTime:      "23:00",
				OrganizerID:  &organizer.ID,
				DepartmentID: &sales.ID,
				Participants: participants,
			}
			Expect(db.Omit("Organizer", "Department", "Participants.*").Create(m).Error).To(Succeed())
		}

		titles := func(meetings []*meeting.Meeting) []string {
			out := make([]string, len(meetings))
			for i, m := range meetings {
				out[i] = m.Title
			}
			return out
		}

		BeforeEach(func() {
			seed("retro", "2026-03-09", "15:00", bob, ada)
			seed("standup", "2026-03-10", "09:00", ada)
			seed("review", "2026-03-10", "08:00", bob, ada, cy)
			seed("offsite", "2026-03-12", "09:00", bob)
		})

		It("finalizes past meetings before listing", func() {
			meetings, err := service.ListMeetings(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(meetings)).To(Equal([]string{"retro", "review", "standup", "offsite"}))
			Expect(meetings[0].Finalized).To(BeTrue())
			Expect(meetings[0].Status).To(Equal(meeting.StatusAfter))
			Expect(meetings[1].Status).To(Equal(meeting.StatusOngoing))
			Expect(meetings[3].Status).To(Equal(meeting.StatusBefore))

			var open int64
			Expect(db.Model(&meetingDatamodel.Meeting{}).Where("finalized = ?", false).Count(&open).Error).To(Succeed())
			Expect(open).To(Equal(int64(3)))
		})

		It("lists organized and attended meetings once each", func() {
			meetings, err := service.ListMyMeetings(as("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(meetings)).To(Equal([]string{"retro", "review", "standup"}))
			Expect(meetings[1].Participants).To(HaveLen(2))
		})

		It("serves the dashboard listing from the same set", func() {
			meetings, err := service.ListUserMeetings(as("cy@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(meetings)).To(Equal([]string{"review"}))
		})

		It("returns an empty list for a caller without a person record", func() {
			meetings, err := service.ListMyMeetings(as("admin@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(meetings).To(BeEmpty())
		})

		It("lists the meetings of a department", func() {
			meetings, err := service.ListDepartmentMeetings(context.Background(), sales.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(meetings).To(HaveLen(4))

			_, err = service.ListDepartmentMeetings(context.Background(), 999)
			Expect(err).To(MatchError(apperrors.ErrDepartmentNotFound))
		})

		It("returns a single meeting", func() {
			var m meetingDatamodel.Meeting
			Expect(db.Where("title = ?", "offsite").First(&m).Error).To(Succeed())

			got, err := service.GetMeeting(context.Background(), m.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Organizer.Name).To(Equal("Bob Stone"))

			_, err = service.GetMeeting(context.Background(), 999)
			Expect(err).To(MatchError(apperrors.ErrMeetingNotFound))
		})
	})
})

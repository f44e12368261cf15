package person_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	meetingDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/meeting"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	taskDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/task"
	titleDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/internal/identity"
	"github.com/frahmantamala/personnel-suite/internal/person"
	"github.com/frahmantamala/personnel-suite/internal/person/postgres"
)

type ensureCall struct {
	email string
	roles []user.Role
}

type fakeSynchronizer struct {
	mu         sync.Mutex
	reconciled []identity.Change
	ensured    []ensureCall
}

func (f *fakeSynchronizer) Reconcile(_ context.Context, c identity.Change) identity.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconciled = append(f.reconciled, c)
	return identity.Result{Operation: identity.OperationUpdate}
}

func (f *fakeSynchronizer) EnsureProvisioned(_ context.Context, email, _ string, roles []user.Role) identity.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append(f.ensured, ensureCall{email: email, roles: roles})
	return identity.Result{Operation: identity.OperationProvision}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

// failingProvider makes every identity call fail.
type failingProvider struct{}

func (failingProvider) Provision(context.Context, identity.ProvisionRequest) (*identity.ProvisionResult, error) {
	return nil, errors.New("identity provider unavailable")
}

func (failingProvider) UpdateUser(context.Context, identity.UpdateUserRequest) error {
	return errors.New("identity provider unavailable")
}

func newTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	Expect(err).NotTo(HaveOccurred())

	// one connection keeps the in-memory database alive across transactions
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	Expect(db.AutoMigrate(
		&departmentDatamodel.Department{},
		&titleDatamodel.Title{},
		&personDatamodel.Person{},
		&taskDatamodel.Task{},
		&meetingDatamodel.Meeting{},
	)).To(Succeed())
	return db
}

var _ = Describe("Service", func() {
	var (
		ctx         context.Context
		db          *gorm.DB
		syncer      *fakeSynchronizer
		publisher   *recordingPublisher
		service     *person.Service
		testLogger  *slog.Logger
		engineering *departmentDatamodel.Department
		hr          *departmentDatamodel.Department
		engineer    *titleDatamodel.Title
		headOfEng   *titleDatamodel.Title
		hrSpecial   *titleDatamodel.Title
		headOfHR    *titleDatamodel.Title
	)

	reload := func(id int64) *personDatamodel.Person {
		var p personDatamodel.Person
		Expect(db.Preload("Department").Preload("Title").First(&p, id).Error).To(Succeed())
		return &p
	}

	departmentHead := func(id int64) *int64 {
		var d departmentDatamodel.Department
		Expect(db.First(&d, id).Error).To(Succeed())
		return d.HeadOfDepartmentID
	}

	BeforeEach(func() {
		ctx = context.Background()
		db = newTestDB()
		testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		engineering = &departmentDatamodel.Department{Name: "Engineering", Color: "#3366FF"}
		hr = &departmentDatamodel.Department{Name: "HR", Color: "#FF9900"}
		Expect(db.Create(engineering).Error).To(Succeed())
		Expect(db.Create(hr).Error).To(Succeed())

		engineer = &titleDatamodel.Title{Name: "Software Engineer", DepartmentID: &engineering.ID}
		headOfEng = &titleDatamodel.Title{Name: "Head of Engineering", DepartmentID: &engineering.ID}
		hrSpecial = &titleDatamodel.Title{Name: "HR Specialist", DepartmentID: &hr.ID}
		headOfHR = &titleDatamodel.Title{Name: "Head of HR", DepartmentID: &hr.ID}
		for _, t := range []*titleDatamodel.Title{engineer, headOfEng, hrSpecial, headOfHR} {
			Expect(db.Omit("Department").Create(t).Error).To(Succeed())
		}

		Expect(db.Omit("Department", "Title").Create(&personDatamodel.Person{
			ID:           5,
			FirstName:    "Ada",
			LastName:     "Lovelace",
			Email:        "a@x.com",
			Address:      strPtr("Main St 1"),
			Salary:       int64Ptr(5000),
			DepartmentID: &engineering.ID,
			TitleID:      &engineer.ID,
		}).Error).To(Succeed())

		syncer = &fakeSynchronizer{}
		publisher = &recordingPublisher{}
		service = person.NewService(postgres.NewPersonRepository(db), syncer, publisher, testLogger)
	})

	placement := func(dept *departmentDatamodel.Department, title *titleDatamodel.Title) person.UpdatePersonRequest {
		return person.UpdatePersonRequest{DepartmentID: &dept.ID, TitleID: &title.ID}
	}

	Describe("UpdatePerson", func() {
		It("promotes person 5 to head of Engineering", func() {
			res, err := service.UpdatePerson(ctx, 5, placement(engineering, headOfEng))
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Changes).To(HaveLen(1))
			Expect(res.Changes[0].Field).To(Equal("titleId"))
			Expect(*res.Changes[0].Old).To(Equal("Software Engineer"))
			Expect(*res.Changes[0].New).To(Equal("Head of Engineering"))

			Expect(departmentHead(engineering.ID)).To(HaveValue(Equal(int64(5))))

			Expect(syncer.reconciled).To(HaveLen(1))
			Expect(syncer.reconciled[0].RoleAffecting).To(BeTrue())
			Expect(syncer.reconciled[0].OldEmail).To(Equal("a@x.com"))
			Expect(syncer.reconciled[0].Roles).To(Equal([]user.Role{user.RoleHead}))
			Expect(syncer.ensured).To(HaveLen(1))
			Expect(syncer.ensured[0].roles).To(Equal([]user.Role{user.RoleHead}))

			Expect(publisher.events).To(HaveLen(1))
			evt := publisher.events[0].(*events.PersonChangedEvent)
			Expect(evt.PersonID).To(Equal(int64(5)))
			Expect(evt.Changes).To(Equal(res.Changes))
		})

		It("publishes nothing for a no-op update", func() {
			req := placement(engineering, engineer)
			req.FirstName = strPtr("Ada")

			res, err := service.UpdatePerson(ctx, 5, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Changes).To(BeEmpty())
			Expect(publisher.events).To(BeEmpty())
			Expect(syncer.reconciled[0].RoleAffecting).To(BeFalse())
		})

		It("leaves absent scalar fields untouched", func() {
			req := placement(engineering, engineer)
			req.PhoneNumber = strPtr("555-0100")

			_, err := service.UpdatePerson(ctx, 5, req)
			Expect(err).NotTo(HaveOccurred())

			p := reload(5)
			Expect(p.FirstName).To(Equal("Ada"))
			Expect(*p.Address).To(Equal("Main St 1"))
			Expect(*p.Salary).To(Equal(int64(5000)))
			Expect(*p.PhoneNumber).To(Equal("555-0100"))
		})

		It("clears a text field sent as an empty string", func() {
			req := placement(engineering, engineer)
			req.Address = strPtr("")

			res, err := service.UpdatePerson(ctx, 5, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(reload(5).Address).To(BeNil())
			Expect(res.Changes).To(HaveLen(1))
			Expect(res.Changes[0].New).To(BeNil())
		})

		It("removes department and title when they are omitted", func() {
			_, err := service.UpdatePerson(ctx, 5, person.UpdatePersonRequest{LastName: strPtr("King")})
			Expect(err).NotTo(HaveOccurred())

			p := reload(5)
			Expect(p.LastName).To(Equal("King"))
			Expect(p.DepartmentID).To(BeNil())
			Expect(p.TitleID).To(BeNil())

			Expect(syncer.reconciled[0].RoleAffecting).To(BeTrue())
			Expect(syncer.reconciled[0].Placed).To(BeFalse())
			Expect(syncer.reconciled[0].Roles).To(Equal([]user.Role{user.RoleEmployee}))
			Expect(syncer.ensured).To(BeEmpty())
		})

		It("treats non-positive ids as absent", func() {
			zero := int64(0)
			_, err := service.UpdatePerson(ctx, 5, person.UpdatePersonRequest{DepartmentID: &zero, TitleID: &zero})
			Expect(err).NotTo(HaveOccurred())
			Expect(reload(5).DepartmentID).To(BeNil())
		})

		It("rejects a second head and changes nothing", func() {
			Expect(db.Omit("Department", "Title").Create(&personDatamodel.Person{
				ID: 7, FirstName: "Grace", LastName: "Hopper", Email: "g@x.com",
				DepartmentID: &engineering.ID, TitleID: &headOfEng.ID,
			}).Error).To(Succeed())
			Expect(db.Model(engineering).Update("head_of_department_id", 7).Error).To(Succeed())

			req := placement(engineering, headOfEng)
			req.FirstName = strPtr("Augusta")
			_, err := service.UpdatePerson(ctx, 5, req)
			Expect(errors.Is(err, apperrors.ErrDepartmentHasHead)).To(BeTrue())

			p := reload(5)
			Expect(p.FirstName).To(Equal("Ada"))
			Expect(*p.TitleID).To(Equal(engineer.ID))
			Expect(departmentHead(engineering.ID)).To(HaveValue(Equal(int64(7))))
			Expect(publisher.events).To(BeEmpty())
			Expect(syncer.reconciled).To(BeEmpty())
		})

		It("clears the head when the head title is given up", func() {
			_, err := service.UpdatePerson(ctx, 5, placement(engineering, headOfEng))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdatePerson(ctx, 5, placement(engineering, engineer))
			Expect(err).NotTo(HaveOccurred())
			Expect(departmentHead(engineering.ID)).To(BeNil())
			Expect(syncer.reconciled[1].Roles).To(Equal([]user.Role{user.RoleEmployee}))
		})

		It("moves a head between departments", func() {
			_, err := service.UpdatePerson(ctx, 5, placement(engineering, headOfEng))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdatePerson(ctx, 5, placement(hr, headOfHR))
			Expect(err).NotTo(HaveOccurred())
			Expect(departmentHead(engineering.ID)).To(BeNil())
			Expect(departmentHead(hr.ID)).To(HaveValue(Equal(int64(5))))
			Expect(syncer.reconciled[1].Roles).To(Equal([]user.Role{user.RoleHR, user.RoleHead}))
		})

		It("derives EMPLOYEE for a regular HR title", func() {
			_, err := service.UpdatePerson(ctx, 5, placement(hr, hrSpecial))
			Expect(err).NotTo(HaveOccurred())
			Expect(syncer.reconciled[0].Roles).To(Equal([]user.Role{user.RoleEmployee}))
		})

		It("fails on an unknown department", func() {
			missing := int64(999)
			_, err := service.UpdatePerson(ctx, 5, person.UpdatePersonRequest{DepartmentID: &missing})
			Expect(errors.Is(err, apperrors.ErrDepartmentNotFound)).To(BeTrue())
			Expect(*reload(5).DepartmentID).To(Equal(engineering.ID))
		})

		It("fails on an unknown title", func() {
			missing := int64(999)
			_, err := service.UpdatePerson(ctx, 5, person.UpdatePersonRequest{DepartmentID: &engineering.ID, TitleID: &missing})
			Expect(errors.Is(err, apperrors.ErrTitleNotFound)).To(BeTrue())
		})

		It("fails on an unknown person", func() {
			_, err := service.UpdatePerson(ctx, 42, person.UpdatePersonRequest{})
			Expect(errors.Is(err, apperrors.ErrPersonNotFound)).To(BeTrue())
		})

		It("rejects a blank first name", func() {
			_, err := service.UpdatePerson(ctx, 5, person.UpdatePersonRequest{FirstName: strPtr("  ")})
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))
		})

		It("rejects an email owned by someone else", func() {
			Expect(db.Omit("Department", "Title").Create(&personDatamodel.Person{
				ID: 8, FirstName: "Alan", LastName: "Turing", Email: "alan@x.com",
			}).Error).To(Succeed())

			req := placement(engineering, engineer)
			req.Email = strPtr("ALAN@x.com")
			_, err := service.UpdatePerson(ctx, 5, req)
			Expect(errors.Is(err, apperrors.ErrEmailTaken)).To(BeTrue())
		})

		It("passes old and new email to the synchronizer", func() {
			req := placement(engineering, engineer)
			req.Email = strPtr("ada@x.com")

			_, err := service.UpdatePerson(ctx, 5, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(syncer.reconciled[0].OldEmail).To(Equal("a@x.com"))
			Expect(syncer.reconciled[0].NewEmail).To(Equal("ada@x.com"))
			Expect(syncer.ensured[0].email).To(Equal("ada@x.com"))
		})

		It("names an admin caller as Admin", func() {
			adminCtx := apperrors.ContextWithPrincipal(ctx, &user.Principal{
				Email: "admin", Role: user.RoleAdmin, Roles: []user.Role{user.RoleAdmin},
			})
			req := placement(engineering, engineer)
			req.FirstName = strPtr("Augusta")

			_, err := service.UpdatePerson(adminCtx, 5, req)
			Expect(err).NotTo(HaveOccurred())
			evt := publisher.events[0].(*events.PersonChangedEvent)
			Expect(evt.UpdatedByName).To(Equal("Admin"))
		})

		It("names the caller's person record as the actor", func() {
			Expect(db.Omit("Department", "Title").Create(&personDatamodel.Person{
				ID: 9, FirstName: "Hedy", LastName: "Lamarr", Email: "hedy@x.com",
			}).Error).To(Succeed())
			hrCtx := apperrors.ContextWithPrincipal(ctx, &user.Principal{
				Email: "hedy@x.com", Role: user.RoleHR, Roles: []user.Role{user.RoleHR},
			})
			req := placement(engineering, engineer)
			req.FirstName = strPtr("Augusta")

			_, err := service.UpdatePerson(hrCtx, 5, req)
			Expect(err).NotTo(HaveOccurred())
			evt := publisher.events[0].(*events.PersonChangedEvent)
			Expect(evt.UpdatedByEmail).To(Equal("hedy@x.com"))
			Expect(evt.UpdatedByName).To(Equal("Hedy Lamarr"))
		})

		It("keeps the update when publishing fails", func() {
			publisher.err = errors.New("broker down")
			req := placement(engineering, engineer)
			req.FirstName = strPtr("Augusta")

			_, err := service.UpdatePerson(ctx, 5, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(reload(5).FirstName).To(Equal("Augusta"))
		})

		It("keeps the update when the identity provider fails", func() {
			realSync := identity.NewSynchronizer(failingProvider{}, 0, testLogger)
			service = person.NewService(postgres.NewPersonRepository(db), realSync, publisher, testLogger)

			_, err := service.UpdatePerson(ctx, 5, placement(engineering, headOfEng))
			Expect(err).NotTo(HaveOccurred())
			Expect(departmentHead(engineering.ID)).To(HaveValue(Equal(int64(5))))
		})

		Context("documented behaviour: unparseable values", func() {
			It("keeps the stored salary and records no change", func() {
				req := placement(engineering, engineer)
				req.Salary = strPtr("five thousand")

				res, err := service.UpdatePerson(ctx, 5, req)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Changes).To(BeEmpty())
				Expect(*reload(5).Salary).To(Equal(int64(5000)))
			})

			It("keeps the stored date and records no change", func() {
				req := placement(engineering, engineer)
				req.BirthDate = strPtr("not-a-date")

				res, err := service.UpdatePerson(ctx, 5, req)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Changes).To(BeEmpty())
				Expect(reload(5).BirthDate).To(BeNil())
			})
		})
	})

	Describe("CreatePerson", func() {
		It("creates a head and provisions the account", func() {
			p, err := service.CreatePerson(ctx, person.CreatePersonRequest{
				FirstName:    "Hedy",
				LastName:     "Lamarr",
				Email:        "hedy@x.com",
				DepartmentID: &hr.ID,
				TitleID:      &headOfHR.ID,
				BirthDate:    strPtr("1914-11-09"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Department.Name).To(Equal("HR"))
			Expect(*p.BirthDate).To(Equal("1914-11-09"))
			Expect(departmentHead(hr.ID)).To(HaveValue(Equal(p.ID)))
			Expect(syncer.ensured).To(HaveLen(1))
			Expect(syncer.ensured[0].roles).To(Equal([]user.Role{user.RoleHR, user.RoleHead}))
		})

		It("rejects a head title when the department is headed", func() {
			Expect(db.Model(engineering).Update("head_of_department_id", 5).Error).To(Succeed())

			_, err := service.CreatePerson(ctx, person.CreatePersonRequest{
				FirstName: "Grace", LastName: "Hopper", Email: "g@x.com",
				DepartmentID: &engineering.ID, TitleID: &headOfEng.ID,
			})
			Expect(errors.Is(err, apperrors.ErrDepartmentHasHead)).To(BeTrue())

			var count int64
			db.Model(&personDatamodel.Person{}).Where("email = ?", "g@x.com").Count(&count)
			Expect(count).To(BeZero())
		})

		It("rejects a duplicate email", func() {
			_, err := service.CreatePerson(ctx, person.CreatePersonRequest{
				FirstName: "Ada", LastName: "Again", Email: "A@X.com",
			})
			Expect(errors.Is(err, apperrors.ErrEmailTaken)).To(BeTrue())
		})

		It("requires names and email", func() {
			_, err := service.CreatePerson(ctx, person.CreatePersonRequest{Email: "not-an-email"})
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeValidationFailed))
		})
	})

	Describe("DeletePerson", func() {
		It("detaches the person before deleting", func() {
			Expect(db.Model(engineering).Update("head_of_department_id", 5).Error).To(Succeed())
			task := &taskDatamodel.Task{Title: "Review", Status: "ASSIGNED", Priority: "MEDIUM", AssigneeID: int64Ptr(5), CreatedByID: int64Ptr(5)}
			Expect(db.Omit("Assignee", "CreatedBy", "Department").Create(task).Error).To(Succeed())

			Expect(service.DeletePerson(ctx, 5)).To(Succeed())

			Expect(departmentHead(engineering.ID)).To(BeNil())
			var reloaded taskDatamodel.Task
			Expect(db.First(&reloaded, task.ID).Error).To(Succeed())
			Expect(reloaded.AssigneeID).To(BeNil())
			Expect(reloaded.CreatedByID).To(BeNil())
		})

		It("returns not found for unknown ids", func() {
			Expect(errors.Is(service.DeletePerson(ctx, 99), apperrors.ErrPersonNotFound)).To(BeTrue())
		})
	})

	Describe("ListPeople", func() {
		BeforeEach(func() {
			for i, name := range []string{"Bob", "Carol", "Dave"} {
				Expect(db.Omit("Department", "Title").Create(&personDatamodel.Person{
					FirstName:    name,
					LastName:     "Smith",
					Email:        name + "@x.com",
					DepartmentID: &hr.ID,
					Salary:       int64Ptr(int64(1000 * (i + 1))),
				}).Error).To(Succeed())
			}
		})

		It("pages results", func() {
			page, err := service.ListPeople(ctx, person.ListFilter{Size: 2, Page: 1, SortBy: "firstName"})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.TotalElements).To(Equal(int64(4)))
			Expect(page.TotalPages).To(Equal(2))
			Expect(page.Content).To(HaveLen(2))
			Expect(page.Content[0].FirstName).To(Equal("Carol"))
		})

		It("filters by department and free text", func() {
			page, err := service.ListPeople(ctx, person.ListFilter{DepartmentID: hr.ID, Query: "car"})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Content).To(HaveLen(1))
			Expect(page.Content[0].Email).To(Equal("Carol@x.com"))
			Expect(page.Size).To(Equal(person.DefaultPageSize))
		})

		It("rejects malformed date filters", func() {
			_, err := service.ListPeople(ctx, person.ListFilter{BirthDateFrom: strPtr("yesterday")})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetMe", func() {
		It("looks the caller up by email", func() {
			me, err := service.GetMe(apperrors.ContextWithPrincipal(ctx, &user.Principal{Email: "A@x.com", Role: user.RoleEmployee}))
			Expect(err).NotTo(HaveOccurred())
			Expect(me.ID).To(Equal(int64(5)))
			Expect(me.Title.Name).To(Equal("Software Engineer"))
		})

		It("requires a principal", func() {
			_, err := service.GetMe(ctx)
			Expect(errors.Is(err, apperrors.ErrMissingPrincipal)).To(BeTrue())
		})
	})
})

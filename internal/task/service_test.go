package task_test

import (
	"context"
	"errors"
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
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	taskDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/task"
	titleDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/internal/task"
	"github.com/frahmantamala/personnel-suite/internal/task/postgres"
)

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
		&taskDatamodel.Task{},
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
		service   *task.Service
		eng       *departmentDatamodel.Department
		ada       *personDatamodel.Person
		bob       *personDatamodel.Person
	)

	BeforeEach(func() {
		db = newTestDB()
		publisher = &recordingPublisher{}
		testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		eng = &departmentDatamodel.Department{Name: "Engineering", Color: "#3366FF"}
		Expect(db.Create(eng).Error).To(Succeed())

		ada = &personDatamodel.Person{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
		bob = &personDatamodel.Person{FirstName: "Bob", LastName: "Stone", Email: "bob@example.com"}
		Expect(db.Omit("Department", "Title").Create(ada).Error).To(Succeed())
		Expect(db.Omit("Department", "Title").Create(bob).Error).To(Succeed())

		service = task.NewService(postgres.NewTaskRepository(db), publisher, testLogger)
	})

	create := func(ctx context.Context, assignee *personDatamodel.Person) *task.Task {
		t, err := service.CreateTask(ctx, task.CreateTaskRequest{
			Title:      "Write report",
			AssigneeID: assignee.ID,
		})
		Expect(err).NotTo(HaveOccurred())
		return t
	}

	Describe("CreateTask", func() {
		It("creates an assigned task and notifies the assignee", func() {
			due := "2026-11-01"
			t, err := service.CreateTask(as("ada@example.com"), task.CreateTaskRequest{
				Title:        "  Quarterly review ",
				Description:  "numbers",
				Priority:     "high",
				AssigneeID:   bob.ID,
				DepartmentID: &eng.ID,
				DueDate:      &due,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Title).To(Equal("Quarterly review"))
			Expect(t.Status).To(Equal(task.StatusAssigned))
			Expect(t.Priority).To(Equal(task.PriorityHigh))
			Expect(t.DueDate).To(HaveValue(Equal("2026-11-01")))
			Expect(t.CreatedBy.Email).To(Equal("ada@example.com"))
			Expect(t.Department.Name).To(Equal("Engineering"))

			Expect(publisher.events).To(HaveLen(1))
			evt := publisher.events[0].(*events.TaskAssignedEvent)
			Expect(evt.AssigneeEmail).To(Equal("bob@example.com"))
			Expect(evt.AssigneeName).To(Equal("Bob Stone"))
			Expect(evt.AssignedByName).To(Equal("Ada Lovelace"))
			Expect(evt.DepartmentName).To(Equal("Engineering"))
		})

		It("defaults the priority and the notification labels", func() {
			t := create(as("admin@example.com"), bob)
			Expect(t.Priority).To(Equal(task.PriorityMedium))
			Expect(t.CreatedBy).To(BeNil())

			evt := publisher.events[0].(*events.TaskAssignedEvent)
			Expect(evt.AssignedByName).To(Equal("Admin"))
			Expect(evt.DepartmentName).To(Equal("General"))
		})

		It("rejects an unknown assignee", func() {
			_, err := service.CreateTask(as("ada@example.com"), task.CreateTaskRequest{Title: "x", AssigneeID: 999})
			Expect(err).To(MatchError(apperrors.ErrPersonNotFound))
		})

		It("rejects an unknown department", func() {
			missing := int64(999)
			_, err := service.CreateTask(as("ada@example.com"), task.CreateTaskRequest{
				Title: "x", AssigneeID: bob.ID, DepartmentID: &missing,
			})
			Expect(err).To(MatchError(apperrors.ErrDepartmentNotFound))
		})

		It("rejects an unknown priority", func() {
			_, err := service.CreateTask(as("ada@example.com"), task.CreateTaskRequest{
				Title: "x", AssigneeID: bob.ID, Priority: "urgent",
			})
			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("still creates the task when publishing fails", func() {
			publisher.err = errors.New("bus down")
			t := create(as("ada@example.com"), bob)
			Expect(t.ID).To(BeNumerically(">", 0))
		})
	})

	Describe("status transitions", func() {
		var t *task.Task

		BeforeEach(func() {
			t = create(as("ada@example.com"), bob)
		})

		It("walks a task through its lifecycle", func() {
			updated, err := service.UpdateTaskStatus(as("bob@example.com"), t.ID, task.UpdateStatusRequest{Status: "in_progress"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(task.StatusInProgress))

			updated, err = service.UpdateTaskStatus(as("BOB@example.com"), t.ID, task.UpdateStatusRequest{Status: task.StatusCompleted})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(task.StatusCompleted))

			closed, err := service.CloseTask(as("ada@example.com"), t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(closed.Status).To(Equal(task.StatusClosed))

			var stored taskDatamodel.Task
			Expect(db.First(&stored, t.ID).Error).To(Succeed())
			Expect(stored.Status).To(Equal(task.StatusClosed))
		})

		It("refuses to skip a step", func() {
			_, err := service.UpdateTaskStatus(as("bob@example.com"), t.ID, task.UpdateStatusRequest{Status: task.StatusCompleted})
			Expect(err).To(MatchError(apperrors.ErrInvalidTaskTransition))
		})

		It("only lets the assignee move the task", func() {
			_, err := service.UpdateTaskStatus(as("ada@example.com"), t.ID, task.UpdateStatusRequest{Status: task.StatusInProgress})
			Expect(err).To(MatchError(apperrors.ErrNotTaskAssignee))
		})

		It("rejects CLOSED as an assignee move", func() {
			_, err := service.UpdateTaskStatus(as("bob@example.com"), t.ID, task.UpdateStatusRequest{Status: task.StatusClosed})
			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("only lets the creator close the task", func() {
			_, err := service.UpdateTaskStatus(as("bob@example.com"), t.ID, task.UpdateStatusRequest{Status: task.StatusInProgress})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.UpdateTaskStatus(as("bob@example.com"), t.ID, task.UpdateStatusRequest{Status: task.StatusCompleted})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CloseTask(as("bob@example.com"), t.ID)
			Expect(err).To(MatchError(apperrors.ErrNotTaskCreator))
		})

		It("refuses to close an unfinished task", func() {
			_, err := service.CloseTask(as("ada@example.com"), t.ID)
			Expect(err).To(MatchError(apperrors.ErrInvalidTaskTransition))
		})

		It("returns not found for an unknown task", func() {
			_, err := service.CloseTask(as("ada@example.com"), 999)
			Expect(err).To(MatchError(apperrors.ErrTaskNotFound))
		})
	})

	Describe("listing", func() {
		seed := func(title string, assignee, creator *personDatamodel.Person, at time.Time) {
			t := &taskDatamodel.Task{
				Title:      title,
				Status:     task.StatusAssigned,
				Priority:   task.PriorityMedium,
				AssigneeID: &assignee.ID,
				CreatedAt:  at,
			}
			if creator != nil {
				t.CreatedByID = &creator.ID
			}
			Expect(db.Omit("Assignee", "CreatedBy", "Department").Create(t).Error).To(Succeed())
		}

		BeforeEach(func() {
			base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
			seed("oldest", ada, bob, base)
			seed("self", ada, ada, base.Add(time.Hour))
			seed("for bob", bob, ada, base.Add(2*time.Hour))
			seed("unrelated", bob, nil, base.Add(3*time.Hour))
		})

		titles := func(tasks []*task.Task) []string {
			out := make([]string, len(tasks))
			for i, t := range tasks {
				out[i] = t.Title
			}
			return out
		}

		It("lists every task newest first", func() {
			tasks, err := service.ListTasks(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(tasks)).To(Equal([]string{"unrelated", "for bob", "self", "oldest"}))
		})

		It("lists the tasks assigned to the caller", func() {
			tasks, err := service.ListMyTasks(as("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(tasks)).To(Equal([]string{"self", "oldest"}))
		})

		It("merges created and assigned tasks without duplicates", func() {
			tasks, err := service.ListUserTasks(as("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(tasks)).To(Equal([]string{"for bob", "self", "oldest"}))
		})

		It("returns an empty list for a caller without a person record", func() {
			tasks, err := service.ListUserTasks(as("admin@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(tasks).To(BeEmpty())
		})

		It("requires a principal", func() {
			_, err := service.ListMyTasks(context.Background())
			Expect(err).To(MatchError(apperrors.ErrMissingPrincipal))
		})
	})
})

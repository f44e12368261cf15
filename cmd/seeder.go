package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/personnel-suite/internal/department"
	departmentRepo "github.com/frahmantamala/personnel-suite/internal/department/postgres"
	"github.com/frahmantamala/personnel-suite/internal/identity"
	"github.com/frahmantamala/personnel-suite/internal/person"
	personRepo "github.com/frahmantamala/personnel-suite/internal/person/postgres"
	"github.com/frahmantamala/personnel-suite/internal/title"
	titleRepo "github.com/frahmantamala/personnel-suite/internal/title/postgres"
)

var clearData bool

type seedDepartment struct {
	Name   string
	Color  string
	Titles []string
}

var seedDepartments = []seedDepartment{
	{"Engineering", "#3B82F6", []string{"Software Engineer", "Senior Developer", "DevOps Engineer", "QA Engineer"}},
	{"HR", "#14B8A6", []string{"HR Specialist", "Recruiter"}},
	{"Product", "#8B5CF6", []string{"Product Manager", "Product Owner"}},
	{"Design", "#F472B6", []string{"UX Designer", "UI Designer"}},
	{"Sales", "#F59E0B", []string{"Sales Executive", "Account Manager"}},
}

type seedPerson struct {
	First, Last, Email, Department, Title string
	Salary                                int64
	ContractStart, Birth                  string
}

var seedPeople = []seedPerson{
	{"Michael", "Johnson", "michael.johnson@example.com", "Engineering", "Head of Engineering", 120000, "2018-03-15", "1985-07-22"},
	{"Sarah", "Williams", "sarah.williams@example.com", "HR", "Head of HR", 95000, "2019-01-10", "1988-04-15"},
	{"David", "Brown", "david.brown@example.com", "Product", "Head of Product", 110000, "2017-06-20", "1983-11-08"},
	{"Emily", "Davis", "emily.davis@example.com", "Design", "Head of Design", 100000, "2018-09-05", "1986-02-28"},
	{"James", "Miller", "james.miller@example.com", "Sales", "Head of Sales", 105000, "2019-04-12", "1984-09-14"},
	{"Jennifer", "Wilson", "jennifer.wilson@example.com", "Engineering", "Senior Developer", 85000, "2020-02-01", "1990-12-03"},
	{"Robert", "Taylor", "robert.taylor@example.com", "Engineering", "Software Engineer", 65000, "2021-07-15", "1992-05-18"},
	{"Daniel", "Jackson", "daniel.jackson@example.com", "Product", "Product Manager", 80000, "2020-05-18", "1987-06-12"},
	{"Kevin", "Martinez", "kevin.martinez@example.com", "HR", "HR Specialist", 55000, "2020-04-08", "1989-12-05"},
	{"Nicole", "Garcia", "nicole.garcia@example.com", "Sales", "Account Manager", 60000, "2021-06-17", "1991-11-28"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed departments, titles, people and the admin account for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		deps, err := initializeDependencies()
		if err != nil {
			log.Fatalf("failed to init dependencies: %v", err)
		}
		defer deps.Close()

		ctx := context.Background()
		cfg := deps.Config
		lg := deps.Logger

		if clearData {
			err := deps.Gorm.Exec("TRUNCATE meeting_participants, meetings, tasks, people, titles, departments, users RESTART IDENTITY CASCADE").Error
			if err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		created, err := newAuthService(deps).SeedAdmin(ctx, cfg.Security.AdminPassword)
		if err != nil {
			log.Fatalf("failed to seed admin account: %v", err)
		}
		if created {
			fmt.Println("Seeded admin account:", cfg.Security.AdminEmail)
		}

		// new people are provisioned in the identity provider when it is reachable
		identityClient := identity.NewClient(identity.Config{BaseURL: cfg.Identity.BaseURL, Timeout: cfg.Identity.Timeout}, lg)
		synchronizer := identity.NewSynchronizer(identityClient, cfg.Identity.SyncTimeout, lg)

		departments := department.NewService(departmentRepo.NewDepartmentRepository(deps.Gorm), synchronizer, lg)
		titles := title.NewService(titleRepo.NewTitleRepository(deps.Gorm), lg)
		people := person.NewService(personRepo.NewPersonRepository(deps.Gorm), synchronizer, deps.publisher(), lg)

		existing, err := departments.ListDepartments(ctx)
		if err != nil {
			log.Fatalf("failed to list departments: %v", err)
		}
		deptIDs := make(map[string]int64)
		for _, d := range existing {
			deptIDs[strings.ToLower(d.Name)] = d.ID
		}

		titleIDs := make(map[string]int64)
		for _, sd := range seedDepartments {
			id, ok := deptIDs[strings.ToLower(sd.Name)]
			if !ok {
				color := sd.Color
				d, err := departments.CreateDepartment(ctx, department.CreateDepartmentRequest{Name: sd.Name, Color: &color})
				if err != nil {
					log.Fatalf("failed to create department %s: %v", sd.Name, err)
				}
				id = d.ID
				fmt.Println("Seeded department:", sd.Name)
			}

			have, err := titles.ListTitlesByDepartment(ctx, id)
			if err != nil {
				log.Fatalf("failed to list titles of %s: %v", sd.Name, err)
			}
			for _, t := range have {
				titleIDs[strings.ToLower(t.Name)] = t.ID
			}
			for _, name := range sd.Titles {
				if _, ok := titleIDs[strings.ToLower(name)]; ok {
					continue
				}
				t, err := titles.CreateTitle(ctx, title.CreateTitleRequest{Name: name, DepartmentID: id})
				if err != nil {
					log.Fatalf("failed to create title %s: %v", name, err)
				}
				titleIDs[strings.ToLower(name)] = t.ID
				fmt.Println("Seeded title:", name)
			}
			deptIDs[strings.ToLower(sd.Name)] = id
		}

		for _, sp := range seedPeople {
			deptID := deptIDs[strings.ToLower(sp.Department)]
			titleID := titleIDs[strings.ToLower(sp.Title)]
			salary := sp.Salary
			start, birth := sp.ContractStart, sp.Birth

			_, err := people.CreatePerson(ctx, person.CreatePersonRequest{
				FirstName:         sp.First,
				LastName:          sp.Last,
				Email:             sp.Email,
				DepartmentID:      &deptID,
				TitleID:           &titleID,
				Salary:            &salary,
				ContractStartDate: &start,
				BirthDate:         &birth,
			})
			if err != nil {
				// already seeded people and heads surface as conflicts
				fmt.Printf("Skipped %s: %v\n", sp.Email, err)
				continue
			}
			fmt.Println("Seeded person:", sp.Email)
		}

		fmt.Println("Seeding complete")
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}

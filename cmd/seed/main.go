// Command seed loads a demo data set: two tenant schools (one active,
// one suspended), an admin user with memberships, and a handful of
// students, mirroring what the platform's seed scripts provision.
package main

import (
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/badurubalaji/msls-sub015/internal/model"
	"github.com/badurubalaji/msls-sub015/pkg/config"
	"github.com/badurubalaji/msls-sub015/pkg/database"
	"github.com/badurubalaji/msls-sub015/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if err := seed(db); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
	log.Info("Seed data loaded")
}

func seed(db *gorm.DB) error {
	springfield := model.Tenant{
		Slug:     "springfield-high",
		Name:     "Springfield High School",
		Status:   model.TenantStatusActive,
		Features: model.FeatureList{"exams", "documents"},
	}
	shelbyville := model.Tenant{
		Slug:   "shelbyville-elementary",
		Name:   "Shelbyville Elementary",
		Status: model.TenantStatusSuspended,
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin12345"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, t := range []*model.Tenant{&springfield, &shelbyville} {
			if err := tx.Where("slug = ?", t.Slug).FirstOrCreate(t).Error; err != nil {
				return err
			}
		}

		admin := model.User{
			Email:     "admin@springfield.example",
			Password:  string(hashed),
			FirstName: "Seymour",
			LastName:  "Skinner",
			TenantID:  &springfield.ID,
		}
		if err := tx.Where("email = ?", admin.Email).FirstOrCreate(&admin).Error; err != nil {
			return err
		}

		allPerms := model.StringList{
			"students:read", "students:write",
			"admissions:read", "admissions:write",
			"exams:read", "exams:write",
			"documents:read", "documents:write",
		}
		for _, m := range []model.UserTenant{
			{UserID: admin.ID, TenantID: springfield.ID, Role: model.RoleOwner, Permissions: allPerms, IsDefault: true, Active: true},
			{UserID: admin.ID, TenantID: shelbyville.ID, Role: model.RoleAdmin, Permissions: allPerms, Active: true},
		} {
			if err := tx.Where("user_id = ? AND tenant_id = ?", m.UserID, m.TenantID).FirstOrCreate(&m).Error; err != nil {
				return err
			}
		}

		// Students are tenant-scoped rows, so insert under the RLS scope
		// the policies expect
		return database.WithTenant(tx, springfield.ID, func(tx *gorm.DB) error {
			students := []model.Student{
				{TenantID: springfield.ID, AdmissionNo: "SPR-0001", FirstName: "Bart", LastName: "Simpson", Class: "4", Section: "A", Status: model.StudentStatusEnrolled},
				{TenantID: springfield.ID, AdmissionNo: "SPR-0002", FirstName: "Lisa", LastName: "Simpson", Class: "2", Section: "A", Status: model.StudentStatusEnrolled},
				{TenantID: springfield.ID, AdmissionNo: "SPR-0003", FirstName: "Milhouse", LastName: "Van Houten", Class: "4", Section: "B", Status: model.StudentStatusEnrolled},
			}
			for _, s := range students {
				if err := tx.Where("tenant_id = ? AND admission_no = ?", s.TenantID, s.AdmissionNo).FirstOrCreate(&s).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
}

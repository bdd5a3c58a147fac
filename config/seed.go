package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/utils"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedFile is the reference data loaded at startup: meal types and the
// subscription plans built from them.
type SeedFile struct {
	MealTypes []SeedMealType `yaml:"meal_types"`
	Plans     []SeedPlan     `yaml:"plans"`
}

type SeedMealType struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type SeedPlan struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	BasePrice    string   `yaml:"base_price"`
	DurationDays int      `yaml:"duration_days"`
	MealTypes    []string `yaml:"meal_types"`
	Active       *bool    `yaml:"active"`
}

func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Seed inserts meal types and plans that do not exist yet, matching by
// name. Existing rows are left alone.
func Seed(db *gorm.DB, seed *SeedFile) error {
	return db.Transaction(func(tx *gorm.DB) error {
		byName := make(map[string]models.MealType, len(seed.MealTypes))
		for _, mt := range seed.MealTypes {
			row := models.MealType{Name: mt.Name}
			if err := tx.Where(models.MealType{Name: mt.Name}).
				Attrs(models.MealType{Description: mt.Description}).
				FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("failed to seed meal type %s: %w", mt.Name, err)
			}
			byName[mt.Name] = row
		}

		for _, p := range seed.Plans {
			price, err := decimal.NewFromString(p.BasePrice)
			if err != nil {
				return fmt.Errorf("plan %s: invalid base_price %q", p.Name, p.BasePrice)
			}
			if p.DurationDays <= 0 {
				return fmt.Errorf("plan %s: duration_days must be positive", p.Name)
			}
			mealTypes := make([]models.MealType, 0, len(p.MealTypes))
			for _, name := range p.MealTypes {
				mt, ok := byName[name]
				if !ok {
					if err := tx.Where("name = ?", name).First(&mt).Error; err != nil {
						return fmt.Errorf("plan %s: unknown meal type %s", p.Name, name)
					}
				}
				mealTypes = append(mealTypes, mt)
			}

			var existing models.SubscriptionPlan
			err = tx.Where("name = ?", p.Name).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			plan := models.SubscriptionPlan{
				Name:         p.Name,
				Description:  p.Description,
				BasePrice:    price,
				DurationDays: p.DurationDays,
				MealTypes:    mealTypes,
				IsActive:     p.Active == nil || *p.Active,
			}
			if err := tx.Omit("MealTypes.*").Create(&plan).Error; err != nil {
				return fmt.Errorf("failed to seed plan %s: %w", p.Name, err)
			}
			utils.InfoLogger.Printf("Seeded plan %s", plan.Name)
		}
		return nil
	})
}

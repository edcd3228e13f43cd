package database

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// SeedFile is the layout of seed.yaml. Prices are strings so they keep their
// exact decimal value.
type SeedFile struct {
	Restaurant struct {
		Name        string `yaml:"name"`
		Address     string `yaml:"address"`
		PhoneNumber string `yaml:"phone_number"`
		Email       string `yaml:"email"`
	} `yaml:"restaurant"`
	Admin struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Email    string `yaml:"email"`
	} `yaml:"admin"`
	Kiosk *struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"kiosk"`
	Tables []struct {
		TableNumber int `yaml:"table_number"`
		Capacity    int `yaml:"capacity"`
	} `yaml:"tables"`
	Menus []SeedMenu `yaml:"menus"`
}

type SeedMenu struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	BasePrice   string       `yaml:"base_price"`
	Category    string       `yaml:"category"`
	ImageURL    string       `yaml:"image_url"`
	IsAvailable *bool        `yaml:"is_available"`
	Options     []SeedOption `yaml:"options"`
}

type SeedOption struct {
	Group           string `yaml:"group"`
	Type            string `yaml:"type"`
	Name            string `yaml:"name"`
	PriceAdjustment string `yaml:"price_adjustment"`
}

// SeedResult counts what a seed run inserted.
type SeedResult struct {
	RestaurantID uint
	Users        int
	Tables       int
	Menus        int
}

func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if seed.Restaurant.Name == "" || seed.Restaurant.Email == "" {
		return nil, errors.New("seed file: restaurant name and email are required")
	}
	if seed.Admin.Username == "" || seed.Admin.Password == "" {
		return nil, errors.New("seed file: admin username and password are required")
	}
	for _, m := range seed.Menus {
		if _, err := parsePrice(m.BasePrice); err != nil {
			return nil, fmt.Errorf("seed file: menu %q: %w", m.Name, err)
		}
	}
	return &seed, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %q", s)
	}
	return utils.Round2(d), nil
}

// Seed inserts the file's records. Existing rows, matched by restaurant email,
// username, table number and menu name, are left untouched, so running it
// twice is harmless.
func Seed(db *gorm.DB, seed *SeedFile) (*SeedResult, error) {
	var result SeedResult

	err := db.Transaction(func(tx *gorm.DB) error {
		restaurant := models.Restaurant{
			Name:        seed.Restaurant.Name,
			Address:     seed.Restaurant.Address,
			PhoneNumber: seed.Restaurant.PhoneNumber,
			Email:       seed.Restaurant.Email,
		}
		if err := tx.Where(models.Restaurant{Email: seed.Restaurant.Email}).
			FirstOrCreate(&restaurant).Error; err != nil {
			return fmt.Errorf("seed restaurant: %w", err)
		}
		result.RestaurantID = restaurant.ID

		created, err := seedUser(tx, seed.Admin.Username, seed.Admin.Password, seed.Admin.Email, models.RoleAdmin, restaurant.ID)
		if err != nil {
			return err
		}
		if created {
			result.Users++
		}
		if seed.Kiosk != nil && seed.Kiosk.Username != "" {
			created, err := seedUser(tx, seed.Kiosk.Username, seed.Kiosk.Password, "", models.RoleCustomer, restaurant.ID)
			if err != nil {
				return err
			}
			if created {
				result.Users++
			}
		}

		for _, t := range seed.Tables {
			var count int64
			if err := tx.Model(&models.Table{}).
				Where("restaurant_id = ? AND table_number = ?", restaurant.ID, t.TableNumber).
				Count(&count).Error; err != nil {
				return fmt.Errorf("seed table %d: %w", t.TableNumber, err)
			}
			if count > 0 {
				continue
			}
			table := models.Table{RestaurantID: restaurant.ID, TableNumber: t.TableNumber, Status: models.TableFree, Capacity: t.Capacity}
			if err := tx.Create(&table).Error; err != nil {
				return fmt.Errorf("seed table %d: %w", t.TableNumber, err)
			}
			result.Tables++
		}

		for _, m := range seed.Menus {
			created, err := seedMenu(tx, restaurant.ID, m)
			if err != nil {
				return err
			}
			if created {
				result.Menus++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithField("restaurant_id", result.RestaurantID).
		WithField("users", result.Users).
		WithField("tables", result.Tables).
		WithField("menus", result.Menus).
		Info("seed completed")
	return &result, nil
}

func seedUser(tx *gorm.DB, username, password, email, role string, restaurantID uint) (bool, error) {
	var existing models.User
	err := tx.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("seed user %s: %w", username, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password for %s: %w", username, err)
	}
	user := models.User{Username: username, Email: email, Password: string(hashed), Role: role, RestaurantID: restaurantID}
	if err := tx.Create(&user).Error; err != nil {
		return false, fmt.Errorf("seed user %s: %w", username, err)
	}
	return true, nil
}

func seedMenu(tx *gorm.DB, restaurantID uint, m SeedMenu) (bool, error) {
	var count int64
	if err := tx.Model(&models.Menu{}).Where("restaurant_id = ? AND name = ?", restaurantID, m.Name).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("seed menu %s: %w", m.Name, err)
	}
	if count > 0 {
		return false, nil
	}

	price, _ := parsePrice(m.BasePrice)
	menu := models.Menu{
		RestaurantID: restaurantID,
		Name:         m.Name,
		Description:  m.Description,
		BasePrice:    price,
		Category:     m.Category,
		ImageURL:     m.ImageURL,
		IsAvailable:  true,
	}
	for _, o := range m.Options {
		adj, err := parsePrice(o.PriceAdjustment)
		if err != nil {
			return false, fmt.Errorf("seed menu %s option %s: %w", m.Name, o.Name, err)
		}
		optType := o.Type
		if optType == "" {
			optType = models.OptionSingleChoice
		}
		menu.Options = append(menu.Options, models.MenuOption{
			OptionGroupName: o.Group,
			OptionType:      optType,
			OptionName:      o.Name,
			PriceAdjustment: adj,
		})
	}
	if err := tx.Create(&menu).Error; err != nil {
		return false, fmt.Errorf("seed menu %s: %w", m.Name, err)
	}
	if m.IsAvailable != nil && !*m.IsAvailable {
		if err := tx.Model(&menu).Update("is_available", false).Error; err != nil {
			return false, fmt.Errorf("seed menu %s: %w", m.Name, err)
		}
	}
	return true, nil
}

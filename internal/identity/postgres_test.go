package identity

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// arrayConverter lets []string arguments through the way pgx accepts them.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

// textArray matches a []string argument exactly. A nil slice never matches
// because the driver would send it as NULL.
type textArray []string

func (a textArray) Match(v driver.Value) bool {
	got, ok := v.([]string)
	if !ok || got == nil || len(got) != len(a) {
		return false
	}
	for i := range a {
		if got[i] != a[i] {
			return false
		}
	}
	return true
}

func TestPGPrimaryStore_FindByCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cols := []string{"code", "name", "phone", "email", "cargo", "role", "user_type", "password"}
	mock.ExpectQuery("SELECT code, name.*FROM users").WithArgs("100").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("100", "Ana", "300", "ana@example.com", "Analyst", "admin", "registered", "s3cret"))

	p, err := NewPGPrimaryStore(db).FindByCode(context.Background(), "100")
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if p.Role != "admin" || p.UserType != UserTypeRegistered || p.Secret != "s3cret" || p.Email != "ana@example.com" {
		t.Fatalf("unexpected row: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGPrimaryStore_NotFoundAndFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := NewPGPrimaryStore(db)
	mock.ExpectQuery("FROM users").WithArgs("x").WillReturnError(sql.ErrNoRows)
	if _, err := store.FindByCode(context.Background(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mock.ExpectQuery("FROM users").WithArgs("y").WillReturnError(errors.New("conn reset"))
	_, err = store.FindByCode(context.Background(), "y")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected raw store error, got %v", err)
	}
}

func TestPGPrimaryStore_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cols := []string{"code", "name", "phone", "email", "cargo", "role", "user_type"}
	mock.ExpectQuery("FROM users").WithArgs("an", 50, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("1", "Ana", "", "", "", "admin", "").
			AddRow("2", "Andres", "", "", "", "", "se_operations"))

	users, err := NewPGPrimaryStore(db).List(context.Background(), " an ", 0, -1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 2 || users[1].UserType != UserTypeOperationsDirectory || users[0].Secret != "" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestPGDirectoryStore_FindEmployee(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	centers := []string{"Tecnicos de Mantenimiento", "Gestion de Mantenimiento"}
	hired := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)
	cols := []string{"national_id", "full_name", "position", "cost_center", "hire_date", "email", "phone"}
	mock.ExpectQuery("FROM employee_directory").WithArgs("1090", textArray{"Tecnicos de Mantenimiento", "Gestion de Mantenimiento"}).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("1090", "Luis", "Tecnico", "Tecnicos de Mantenimiento", hired, "", ""))

	store := NewPGDirectoryStore(db, centers)
	centers[0] = "mutated"

	d, err := store.FindEmployee(context.Background(), "1090")
	if err != nil {
		t.Fatalf("FindEmployee: %v", err)
	}
	if d.Code != "1090" || d.HireDate != "2021-03-15" || d.CostCenter != "Tecnicos de Mantenimiento" {
		t.Fatalf("unexpected employee: %+v", d)
	}
	if store.costCenters[0] != "Tecnicos de Mantenimiento" {
		t.Fatalf("store must copy cost centers")
	}

	mock.ExpectQuery("FROM employee_directory").WithArgs("9", textArray{"Tecnicos de Mantenimiento", "Gestion de Mantenimiento"}).WillReturnError(sql.ErrNoRows)
	if _, err := store.FindEmployee(context.Background(), "9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGDirectoryStore_NoCostCentersSendsEmptyArray(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cols := []string{"national_id", "full_name", "position", "cost_center", "hire_date", "email", "phone"}
	mock.ExpectQuery("FROM employee_directory").WithArgs("1090", textArray{}).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("1090", "Luis", "", "Otro", nil, "", ""))

	d, err := NewPGDirectoryStore(db, nil).FindEmployee(context.Background(), "1090")
	if err != nil {
		t.Fatalf("FindEmployee: %v", err)
	}
	if d.Code != "1090" || d.HireDate != "" {
		t.Fatalf("unexpected employee: %+v", d)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

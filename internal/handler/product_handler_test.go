package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"go-catalog-admin/internal/middleware"
	"go-catalog-admin/internal/model"
	"go-catalog-admin/internal/repository"
	"go-catalog-admin/internal/service"
	"go-catalog-admin/internal/workflow"
	"go-catalog-admin/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

type fakeCatalog struct {
	service.CatalogService
	filter    repository.ProductFilter
	actor     string
	createErr error
	createOut *workflow.Outcome
	getErr    error
	request   *service.ProductRequest
}

func (f *fakeCatalog) ListProducts(_ context.Context, flt repository.ProductFilter) (*service.ProductPage, error) {
	f.filter = flt
	return &service.ProductPage{Page: flt.Page, PageSize: flt.PageSize}, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id uint) (*model.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p := &model.Product{Name: "Lamp", Categories: []model.Category{{ID: 2}, {ID: 5}}}
	p.ID = id
	return p, nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, actor string, req *service.ProductRequest) (*workflow.Outcome, error) {
	f.actor = actor
	f.request = req
	return f.createOut, f.createErr
}

func newTestApp(svc service.CatalogService, privileges ...string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_email", "ops@example.com")
		c.Locals("user_privileges", privileges)
		return c.Next()
	})
	h := NewProductHandler(svc)
	app.Get("/products", h.GetProducts)
	app.Get("/products/:id", h.GetProduct)
	app.Post("/products", middleware.RequirePrivilege(model.PrivProductCreate), h.CreateProduct)
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestGetProducts_ParsesFilter(t *testing.T) {
	svc := &fakeCatalog{}
	app := newTestApp(svc)

	status, _ := do(t, app, "GET", "/products?name=lamp&category_id=2&category_id=5&category_ids=7,%208&page=3&page_size=10", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	want := repository.ProductFilter{NameContains: "lamp", CategoryIDs: []uint{2, 5, 7, 8}, Page: 3, PageSize: 10}
	if !reflect.DeepEqual(svc.filter, want) {
		t.Errorf("expected %+v, got %+v", want, svc.filter)
	}

	if status, _ := do(t, app, "GET", "/products?category_id=abc", ""); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for a bad category id, got %d", status)
	}
}

func TestGetProduct_ReturnsCategoryIDs(t *testing.T) {
	app := newTestApp(&fakeCatalog{})

	status, body := do(t, app, "GET", "/products/4", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	ids, _ := body["categoryIds"].([]any)
	if len(ids) != 2 {
		t.Errorf("expected two category ids, got %v", body["categoryIds"])
	}

	if status, _ := do(t, app, "GET", "/products/0", ""); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for id 0, got %d", status)
	}
	app = newTestApp(&fakeCatalog{getErr: repository.ErrNotFound})
	if status, _ := do(t, app, "GET", "/products/4", ""); status != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestCreateProduct_StatusMapping(t *testing.T) {
	const body = `{"name":"Lamp","price":"29.99","images":[{"name":"k","url":"https://cdn/k"}],"categoryIds":[1,2]}`

	tests := []struct {
		name   string
		err    error
		out    *workflow.Outcome
		status int
	}{
		{"created", nil, &workflow.Outcome{State: workflow.StateAssociationsWritten}, fiber.StatusCreated},
		{"validation", &workflow.ValidationError{Fields: []*validator.FieldError{{FailedField: "categoryIds", Tag: "required"}}},
			&workflow.Outcome{State: workflow.StateIdle, DrawerOpen: true}, fiber.StatusBadRequest},
		{"busy", workflow.ErrBusy, nil, fiber.StatusConflict},
		{"rolled back", &workflow.AssociationWriteError{ProductID: 9, RolledBack: true, Err: errors.New("fk")},
			&workflow.Outcome{State: workflow.StateIdle, DrawerOpen: true}, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeCatalog{createErr: tt.err, createOut: tt.out}
			app := newTestApp(svc, model.PrivProductCreate)

			status, resp := do(t, app, "POST", "/products", body)
			if status != tt.status {
				t.Fatalf("expected %d, got %d (%v)", tt.status, status, resp)
			}
			if svc.actor != "ops@example.com" {
				t.Errorf("expected actor from locals, got %q", svc.actor)
			}
			if !reflect.DeepEqual(svc.request.CategoryIDs, []uint{1, 2}) || svc.request.Price == nil {
				t.Errorf("request not decoded: %+v", svc.request)
			}
			if tt.err != nil && tt.out != nil && resp["outcome"] == nil {
				t.Errorf("failed submission should carry its outcome, got %v", resp)
			}
			if _, ok := tt.err.(*workflow.ValidationError); ok && resp["fields"] == nil {
				t.Errorf("expected fields in %v", resp)
			}
		})
	}
}

func TestCreateProduct_RequiresPrivilege(t *testing.T) {
	svc := &fakeCatalog{}
	app := newTestApp(svc, model.PrivProductView)

	if status, _ := do(t, app, "POST", "/products", `{}`); status != fiber.StatusForbidden {
		t.Errorf("expected 403, got %d", status)
	}
	if svc.request != nil {
		t.Error("handler must not run without the privilege")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&service.UploadError{Stage: service.StageUpload, Err: errors.New("503")}, fiber.StatusBadGateway},
		{service.ErrNotImage, fiber.StatusUnsupportedMediaType},
		{&workflow.UpdateError{ProductID: 1, Err: repository.ErrNotFound}, fiber.StatusNotFound},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

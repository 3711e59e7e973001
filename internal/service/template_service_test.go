package service

import (
	"testing"

	"github.com/mautops/practica-gin/internal/apperror"
	"github.com/mautops/practica-gin/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTemplateService(f *serviceFixture) TemplateService {
	return NewTemplateService(f.templates, f.db, NewAuditLogService(f.audit))
}

func encuestaRequest() *CreateTemplateRequest {
	return &CreateTemplateRequest{
		Kind:        "encuesta",
		Name:        "Encuesta de satisfacción",
		Description: "Opinión del alumno",
		Fields: []form.Field{
			{ID: "satisfaccion", Label: "Satisfacción", Type: form.InputSelect, Required: true, Owner: form.OwnerStudent, Options: []string{"alta", "media", "baja"}},
		},
	}
}

func TestTemplateService_CreateAndAudit(t *testing.T) {
	f := newServiceFixture(t)
	svc := newTemplateService(f)
	ctx := WithUserID(f.ctx, coordinador.ID)

	tpl, err := svc.Create(ctx, encuestaRequest())
	require.NoError(t, err)
	assert.Equal(t, "encuesta", tpl.Kind)
	assert.Equal(t, coordinador.ID, tpl.CreatedBy)

	logs, err := f.audit.FindByResource("template", tpl.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "create", logs[0].Action)

	_, err = svc.Create(ctx, encuestaRequest())
	assert.True(t, apperror.Is(err, apperror.KindDuplicate))
}

func TestTemplateService_CreateRejectsBadName(t *testing.T) {
	f := newServiceFixture(t)
	svc := newTemplateService(f)

	req := encuestaRequest()
	req.Name = "<script>"
	_, err := svc.Create(f.ctx, req)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestTemplateService_GetByKindCacheInvalidatedOnUpdate(t *testing.T) {
	f := newServiceFixture(t)
	svc := newTemplateService(f)

	first, err := svc.GetByKind(f.ctx, form.KindLogbook)
	require.NoError(t, err)

	name := "Bitácora de actividades"
	updated, err := svc.Update(f.ctx, first.ID, &UpdateTemplateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	again, err := svc.GetByKind(f.ctx, form.KindLogbook)
	require.NoError(t, err)
	assert.Equal(t, name, again.Name)
}

func TestTemplateService_DeleteProtectedKind(t *testing.T) {
	f := newServiceFixture(t)
	svc := newTemplateService(f)

	tpl, err := svc.GetByKind(f.ctx, form.KindPostulation)
	require.NoError(t, err)
	err = svc.Delete(f.ctx, tpl.ID)
	assert.True(t, apperror.Is(err, apperror.KindPermission))

	created, err := svc.Create(f.ctx, encuestaRequest())
	require.NoError(t, err)
	_, err = svc.GetByKind(f.ctx, "encuesta")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(f.ctx, created.ID))

	_, err = svc.GetByKind(f.ctx, "encuesta")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestTemplateService_List(t *testing.T) {
	f := newServiceFixture(t)
	svc := newTemplateService(f)

	resp, err := svc.List(f.ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Pagination.Total)
	require.Len(t, resp.Data, 4)
	assert.Equal(t, form.KindLogbook, resp.Data[0].Kind)

	resp, err = svc.List(f.ctx, &TemplateListFilter{Search: "evaluacion", PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Pagination.Total)
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Pagination.TotalPage)

	_, err = svc.List(f.ctx, &TemplateListFilter{SortBy: "fields; DROP TABLE"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = svc.List(f.ctx, &TemplateListFilter{Order: "sideways"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

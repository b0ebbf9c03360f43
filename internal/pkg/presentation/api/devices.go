package api

import (
	"net/http"

	"github.com/esmart-iot/esmart-api/internal/pkg/application/devices"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/tracing"
	"github.com/esmart-iot/esmart-api/internal/pkg/presentation/api/respond"
	"github.com/esmart-iot/esmart-api/pkg/types"
	"github.com/go-chi/chi/v5"
)

func createDeviceHandler(svc devices.DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "create-device")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		ownerID, err := currentUser(ctx)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		var d types.DeviceCreate
		if err = decodeBody(r, &d); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		device, err := svc.Create(ctx, ownerID, d)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		requestLogger.Info().Str("device_id", device.DeviceID).Msg("device created")

		respond.JSON(w, http.StatusCreated, device)
	}
}

func listDevicesHandler(svc devices.DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "list-devices")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		ownerID, err := currentUser(ctx)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		skip, limit, err := pagination(r)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		result, err := svc.List(ctx, ownerID, skip, limit)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, result)
	}
}

func getDeviceHandler(svc devices.DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "get-device")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		ownerID, err := currentUser(ctx)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		device, err := svc.Get(ctx, ownerID, chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, device)
	}
}

func updateDeviceHandler(svc devices.DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "update-device")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		ownerID, err := currentUser(ctx)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		var patch types.DeviceUpdate
		if err = decodeBody(r, &patch); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		device, err := svc.Update(ctx, ownerID, chi.URLParam(r, "id"), patch)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, device)
	}
}

func deleteDeviceHandler(svc devices.DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "delete-device")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		ownerID, err := currentUser(ctx)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		err = svc.Delete(ctx, ownerID, chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

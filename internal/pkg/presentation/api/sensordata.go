package api

import (
	"net/http"

	"github.com/esmart-iot/esmart-api/internal/pkg/application/sensordata"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/tracing"
	"github.com/esmart-iot/esmart-api/internal/pkg/presentation/api/respond"
	"github.com/esmart-iot/esmart-api/pkg/types"
	"github.com/go-chi/chi/v5"
)

func createSensorDataHandler(svc sensordata.SensorDataService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "create-sensordata")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		var d types.SensorDataCreate
		if err = decodeBody(r, &d); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		data, err := svc.Create(ctx, d)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusCreated, data)
	}
}

func listSensorDataByDeviceHandler(svc sensordata.SensorDataService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "list-sensordata-by-device")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		skip, limit, err := pagination(r)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		result, err := svc.ListByDevice(ctx, chi.URLParam(r, "id"), skip, limit)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, result)
	}
}

func getSensorDataHandler(svc sensordata.SensorDataService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "get-sensordata")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		data, err := svc.Get(ctx, chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, data)
	}
}

func updateSensorDataHandler(svc sensordata.SensorDataService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "update-sensordata")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		callerID, err := currentUser(ctx)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		var patch types.SensorDataUpdate
		if err = decodeBody(r, &patch); err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		data, err := svc.Update(ctx, callerID, chi.URLParam(r, "id"), patch)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		respond.JSON(w, http.StatusOK, data)
	}
}

func deleteSensorDataHandler(svc sensordata.SensorDataService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span, requestLogger := startSpan(r, "delete-sensordata")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		callerID, err := currentUser(ctx)
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		err = svc.Delete(ctx, callerID, chi.URLParam(r, "id"))
		if err != nil {
			respond.Error(w, requestLogger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

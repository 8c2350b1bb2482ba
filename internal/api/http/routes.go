package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/cache"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/chart"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/climate"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *climate.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/datasets", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"datasets": service.ListDatasets(),
		})
	})

	v1.Get("/datasets/:name", func(c *fiber.Ctx) error {
		dataset, err := parseDatasetParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var query rangeQuery
		if err := query.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(query); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		doc, err := service.LoadDataset(dataset)
		if err != nil {
			if errors.Is(err, climate.ErrNotCached) {
				return fiber.NewError(fiber.StatusNotFound, "dataset has not been fetched yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load dataset")
		}

		records := doc.Records
		if query.active() {
			records = filterByTime(records, query)
		}

		return c.JSON(fiber.Map{
			"metadata": doc.Metadata,
			"records":  records,
		})
	})

	v1.Get("/datasets/:name/chart", func(c *fiber.Ctx) error {
		dataset, err := parseDatasetParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		doc, err := service.LoadDataset(dataset)
		if err != nil {
			if errors.Is(err, climate.ErrNotCached) {
				return fiber.NewError(fiber.StatusNotFound, "dataset has not been fetched yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load dataset")
		}

		data, err := chart.Build(dataset, doc)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build chart data")
		}
		return c.JSON(data)
	})

	v1.Post("/datasets/:name/refresh", func(c *fiber.Ctx) error {
		dataset, err := parseDatasetParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := service.RefreshDataset(c.Context(), dataset); err != nil {
			if errors.Is(err, climate.ErrSaveRejected) {
				// The guarded writer kept the previous document; the fetch
				// looked dangerous or returned nothing.
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}

		return c.JSON(fiber.Map{
			"dataset": dataset,
			"saved":   true,
		})
	})
}

func parseDatasetParam(c *fiber.Ctx) (climate.Dataset, error) {
	return climate.ParseDataset(c.Params("name"))
}

// rangeQuery holds the optional decimal-year window for record listings.
type rangeQuery struct {
	From float64 `validate:"omitempty,gte=0"`
	To   float64 `validate:"omitempty,gtefield=From"`
}

func (q *rangeQuery) bind(c *fiber.Ctx) error {
	if s := c.Query("from"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.New("invalid 'from'; expected a decimal year")
		}
		q.From = v
	}
	if s := c.Query("to"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.New("invalid 'to'; expected a decimal year")
		}
		q.To = v
	}
	return nil
}

func (q rangeQuery) active() bool {
	return q.From != 0 || q.To != 0
}

func filterByTime(records []cache.Record, q rangeQuery) []cache.Record {
	var result []cache.Record
	for _, r := range records {
		t, ok := climate.RecordTime(r)
		if !ok {
			continue
		}
		if q.From != 0 && t < q.From {
			continue
		}
		if q.To != 0 && t > q.To {
			continue
		}
		result = append(result, r)
	}
	return result
}

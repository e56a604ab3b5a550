package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the heatmap service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float, Resolve: boundsField(func(b *domain.Bounds) float64 { return b.MinLat })},
			"min_lon": &graphql.Field{Type: graphql.Float, Resolve: boundsField(func(b *domain.Bounds) float64 { return b.MinLon })},
			"max_lat": &graphql.Field{Type: graphql.Float, Resolve: boundsField(func(b *domain.Bounds) float64 { return b.MaxLat })},
			"max_lon": &graphql.Field{Type: graphql.Float, Resolve: boundsField(func(b *domain.Bounds) float64 { return b.MaxLon })},
		},
	})

	summaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DatasetSummary",
		Fields: graphql.Fields{
			"points":         &graphql.Field{Type: graphql.Int},
			"dated_points":   &graphql.Field{Type: graphql.Int},
			"undated_points": &graphql.Field{Type: graphql.Int},
			"first_date":     &graphql.Field{Type: graphql.String},
			"last_date":      &graphql.Field{Type: graphql.String},
			"bounds":         &graphql.Field{Type: boundsType},
			"span_km":        &graphql.Field{Type: graphql.Float},
		},
	})

	pointsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PointsResult",
		Fields: graphql.Fields{
			"start":  &graphql.Field{Type: graphql.String},
			"end":    &graphql.Field{Type: graphql.String},
			"shown":  &graphql.Field{Type: graphql.Int},
			"total":  &graphql.Field{Type: graphql.Int},
			"points": &graphql.Field{Type: graphql.NewList(geoPointType)},
		},
	})

	dateRangeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DateRange",
		Fields: graphql.Fields{
			"start": &graphql.Field{Type: graphql.String},
			"end":   &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"dataset": &graphql.Field{
				Type:        summaryType,
				Description: "Summary of every collected point",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, err := deps.Heatmap.Summary(p.Context)
					if err != nil {
						return nil, err
					}
					return summaryMap(s), nil
				},
			},
			"points": &graphql.Field{
				Type:        pointsType,
				Description: "Points recorded between start and end (inclusive, YYYY-MM-DD)",
				Args: graphql.FieldConfigArgument{
					"start": &graphql.ArgumentConfig{Type: graphql.String},
					"end":   &graphql.ArgumentConfig{Type: graphql.String},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1000},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					start, _ := p.Args["start"].(string)
					end, _ := p.Args["end"].(string)
					w, err := domain.ParseWindow(start, end)
					if err != nil {
						return nil, err
					}
					w, err = deps.Heatmap.ResolveWindow(p.Context, w)
					if err != nil {
						return nil, err
					}
					points, total, err := deps.Heatmap.Points(p.Context, w)
					if err != nil {
						return nil, err
					}
					shown := len(points)
					if limit, ok := p.Args["limit"].(int); ok && limit >= 0 && limit < len(points) {
						points = points[:limit]
					}
					out := make([]map[string]interface{}, len(points))
					for i, pt := range points {
						out[i] = map[string]interface{}{"lat": pt.Lat, "lon": pt.Lon}
					}
					return map[string]interface{}{
						"start":  w.Start.String(),
						"end":    w.End.String(),
						"shown":  shown,
						"total":  total,
						"points": out,
					}, nil
				},
			},
			"dateRange": &graphql.Field{
				Type:        dateRangeType,
				Description: "First and last calendar date with data",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, err := deps.Heatmap.Summary(p.Context)
					if err != nil {
						return nil, err
					}
					if s.FirstDate == "" {
						return nil, nil
					}
					return map[string]interface{}{"start": s.FirstDate, "end": s.LastDate}, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"refresh": &graphql.Field{
				Type:        summaryType,
				Description: "Recollect the track folder and overwrite the cache",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if _, err := deps.Heatmap.Refresh(p.Context); err != nil {
						return nil, err
					}
					s, err := deps.Heatmap.Summary(p.Context)
					if err != nil {
						return nil, err
					}
					return summaryMap(s), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func summaryMap(s domain.DatasetSummary) map[string]interface{} {
	m := map[string]interface{}{
		"points":         s.Points,
		"dated_points":   s.DatedPoints,
		"undated_points": s.UndatedCount,
		"first_date":     s.FirstDate,
		"last_date":      s.LastDate,
		"span_km":        s.SpanKm,
	}
	if s.Bounds != nil {
		m["bounds"] = s.Bounds
	}
	return m
}

func boundsField(get func(*domain.Bounds) float64) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		b, ok := p.Source.(*domain.Bounds)
		if !ok || b == nil {
			return nil, nil
		}
		return get(b), nil
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

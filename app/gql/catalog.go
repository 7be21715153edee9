// Package gql exposes the public catalog as a read-only GraphQL schema.
package gql

import (
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/markethub/app/services"
	gqlhttp "github.com/shashiranjanraj/markethub/pkg/graphql"
	"github.com/shashiranjanraj/markethub/pkg/session"
)

func field(t graphql.Output, get func(services.ProductView) any) *graphql.Field {
	return &graphql.Field{
		Type: t,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			v, ok := p.Source.(services.ProductView)
			if !ok {
				return nil, nil
			}
			return get(v), nil
		},
	}
}

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":              field(graphql.NewNonNull(graphql.ID), func(v services.ProductView) any { return v.ID }),
		"name":            field(graphql.String, func(v services.ProductView) any { return v.Name }),
		"description":     field(graphql.String, func(v services.ProductView) any { return v.Description }),
		"price":           field(graphql.String, func(v services.ProductView) any { return v.Price.StringFixed(2) }),
		"stockQuantity":   field(graphql.Int, func(v services.ProductView) any { return v.StockQuantity }),
		"category":        field(graphql.String, func(v services.ProductView) any { return v.Category }),
		"imageUrl":        field(graphql.String, func(v services.ProductView) any { return v.ImageURL }),
		"status":          field(graphql.String, func(v services.ProductView) any { return v.Status }),
		"vendorId":        field(graphql.String, func(v services.ProductView) any { return v.VendorID }),
		"storeName":       field(graphql.String, func(v services.ProductView) any { return v.StoreName }),
		"slug":            field(graphql.String, func(v services.ProductView) any { return v.Slug }),
		"canonicalPath":   field(graphql.String, func(v services.ProductView) any { return v.CanonicalPath }),
		"metaTitle":       field(graphql.String, func(v services.ProductView) any { return v.Meta.Title }),
		"metaDescription": field(graphql.String, func(v services.ProductView) any { return v.Meta.Description }),
		"metaImage":       field(graphql.String, func(v services.ProductView) any { return v.Meta.Image }),
	},
})

// Schema builds the catalog schema on top of svc. Resolvers see the
// viewer's session when the handler runs behind OptionalAuth.
func Schema(svc *services.CatalogService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"search":   &graphql.ArgumentConfig{Type: graphql.String},
					"category": &graphql.ArgumentConfig{Type: graphql.String},
					"page":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"perPage":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 24},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					search, _ := p.Args["search"].(string)
					category, _ := p.Args["category"].(string)
					page, _ := p.Args["page"].(int)
					perPage, _ := p.Args["perPage"].(int)
					items, _, err := svc.ListActive(p.Context, services.ProductFilter{
						Search:   search,
						Category: category,
						Page:     page,
						PerPage:  perPage,
					})
					return items, err
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(string)
					viewer, _ := session.FromContext(p.Context)
					v, err := svc.Get(p.Context, viewer, id)
					if errors.Is(err, services.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return v, nil
				},
			},
			"categories": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return svc.Categories(p.Context)
				},
			},
		},
	})
	return gqlhttp.NewSchema(query)
}

package graphql

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"time"

	gql "github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gin-gonic/gin"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/api/middleware"
	apierrors "github.com/feral-file/ff-ledger/internal/api/shared/errors"
	"github.com/feral-file/ff-ledger/internal/api/shared/executor"
	"github.com/feral-file/ff-ledger/internal/logger"
)

//go:embed schema.graphqls
var schemaSource string

// authenticatedFields are the Query fields that need an Authorization header
var authenticatedFields = map[string]bool{
	"reconciliation": true,
}

// Handler defines the interface for GraphQL API handlers
type Handler interface {
	// HandleGraphQL handles GraphQL queries
	HandleGraphQL(c *gin.Context)

	// HandlePlayground serves the GraphQL Playground
	HandlePlayground(c *gin.Context)

	// HandleSchema serves the schema in SDL
	HandleSchema(c *gin.Context)
}

// gqlHandler executes queries against the ledger schema with the shared executor
type gqlHandler struct {
	schema   *ast.Schema
	resolver *Resolver
	auth     *middleware.Authenticator
	json     adapter.JSON
}

// NewHandler loads the schema and creates a GraphQL handler. A zero inactiveFor falls
// back to DEFAULT_INACTIVE_FOR.
func NewHandler(exec executor.Executor, auth *middleware.Authenticator, inactiveFor time.Duration) (Handler, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSource})
	if err != nil {
		return nil, fmt.Errorf("failed to load GraphQL schema: %w", err)
	}

	return &gqlHandler{
		schema:   schema,
		resolver: NewResolver(exec, inactiveFor),
		auth:     auth,
		json:     adapter.NewJSON(),
	}, nil
}

// HandleGraphQL processes GraphQL queries
func (h *gqlHandler) HandleGraphQL(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, rejected(apierrors.ErrCodeBadRequest, "failed to read request body"))
		return
	}

	var params gql.RawParams
	if err := h.json.Unmarshal(body, &params); err != nil {
		c.JSON(http.StatusBadRequest, rejected(apierrors.ErrCodeBadRequest, "json request body could not be decoded"))
		return
	}

	status, resp := h.execute(c.Request.Context(), &params, c.GetHeader("Authorization"))
	c.JSON(status, resp)
}

// execute runs one request. Invalid documents and variables answer 422 without data.
func (h *gqlHandler) execute(ctx context.Context, params *gql.RawParams, authHeader string) (int, *gql.Response) {
	doc, errs := gqlparser.LoadQueryWithRules(h.schema, params.Query, nil)
	if len(errs) > 0 {
		return http.StatusUnprocessableEntity, &gql.Response{Errors: errs}
	}

	op := doc.Operations.ForName(params.OperationName)
	if op == nil {
		return http.StatusUnprocessableEntity, rejected(apierrors.ErrCodeBadRequest,
			fmt.Sprintf("operation %q not found", params.OperationName))
	}
	if op.Operation != ast.Query {
		return http.StatusUnprocessableEntity, rejected(apierrors.ErrCodeBadRequest,
			fmt.Sprintf("%s operations are not supported", op.Operation))
	}

	vars, err := validator.VariableValues(h.schema, op, params.Variables)
	if err != nil {
		return http.StatusUnprocessableEntity, &gql.Response{Errors: gqlerror.List{gqlerror.WrapIfUnwrapped(err)}}
	}

	e := &execution{
		ctx:       ctx,
		schema:    h.schema,
		doc:       doc,
		vars:      vars,
		resolvers: h.resolver.fields(),
	}

	authCtx, authErr := h.authorize(ctx, e, op, authHeader)
	if authErr != nil {
		return http.StatusOK, &gql.Response{Errors: gqlerror.List{authErr}}
	}
	e.ctx = authCtx

	data, err := h.json.Marshal(e.run(op))
	if err != nil {
		return http.StatusOK, &gql.Response{Errors: gqlerror.List{handleInternalError(ctx, err)}}
	}
	return http.StatusOK, &gql.Response{Data: data, Errors: e.errs}
}

// authorize authenticates operations selecting an authenticated field and stores the
// auth info in the context, as the REST auth middleware does
func (h *gqlHandler) authorize(ctx context.Context, e *execution, op *ast.OperationDefinition, authHeader string) (context.Context, *gqlerror.Error) {
	guarded := ""
	for _, f := range e.collectFields(op.SelectionSet, h.schema.Query) {
		if authenticatedFields[f.field.Name] {
			guarded = f.field.Name
			break
		}
	}
	if guarded == "" {
		return ctx, nil
	}

	authType, subject, err := h.auth.Authenticate(authHeader)
	if err != nil {
		logger.WarnCtx(ctx, "GraphQL query authentication failed",
			zap.Error(err),
			zap.String("field", guarded),
		)
		return ctx, requestError(apierrors.ErrCodeUnauthorized, "Authentication required for this query")
	}

	ctx = context.WithValue(ctx, middleware.AUTH_TYPE_KEY, authType)
	if subject != "" {
		ctx = context.WithValue(ctx, middleware.AUTH_SUBJECT_KEY, subject)
	}
	logger.DebugCtx(ctx, "GraphQL query authentication successful",
		zap.String("field", guarded),
		zap.String("auth_type", authType),
	)
	return ctx, nil
}

// HandlePlayground serves the GraphQL Playground interface
func (h *gqlHandler) HandlePlayground(c *gin.Context) {
	playground.Handler("Ledger GraphQL Playground", "/graphql").ServeHTTP(c.Writer, c.Request)
}

// HandleSchema serves the schema source
func (h *gqlHandler) HandleSchema(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(schemaSource))
}

func rejected(code apierrors.ErrorCode, message string) *gql.Response {
	return &gql.Response{Errors: gqlerror.List{requestError(code, message)}}
}

// SetupRoutes configures GraphQL API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// GraphQL endpoint (POST for queries)
	router.POST("/graphql", handler.HandleGraphQL)

	// GraphQL Playground (GET for interactive IDE)
	router.GET("/graphql", handler.HandlePlayground)

	router.GET("/graphql/schema", handler.HandleSchema)
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"automations/internal/logging"
	"automations/internal/shopify"
	"automations/internal/tenancy"
	"automations/internal/webhooks"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var installMethods = []string{"GET", "POST", "DELETE", "PUT"}

// InstallRequest is the body of a POST to the install endpoint. Method is the
// management action; the HTTP verb is always POST.
type InstallRequest struct {
	Shop        string          `json:"shop" validate:"required,shopdomain"`
	Method      string          `json:"method" validate:"required,oneof=GET POST DELETE PUT"`
	AccessToken string          `json:"accessToken" validate:"required_unless=Method GET"`
	Webhooks    *WebhooksChange `json:"webhooks"`
}

// WebhooksChange values are "ALL" or a list of catalog keys.
type WebhooksChange struct {
	Add    any `json:"add"`
	Remove any `json:"remove"`
}

type CredentialStore interface {
	Get(ctx context.Context, shop string) (shopify.Credential, error)
	Set(ctx context.Context, cred shopify.Credential) error
	Delete(ctx context.Context, shop string) error
}

type ShopVerifier interface {
	ShopInfo(ctx context.Context, cred shopify.Credential) (*shopify.Shop, error)
}

type WebhookManager interface {
	Catalog() webhooks.Catalog
	Overview(ctx context.Context, cred shopify.Credential) (webhooks.Overview, error)
	Register(ctx context.Context, cred shopify.Credential, filter func(webhooks.Descriptor) bool) (webhooks.Overview, []webhooks.Result, error)
	Delete(ctx context.Context, cred shopify.Credential, predicate func(shopify.WebhookSubscription) bool) ([]webhooks.Result, error)
}

type InstallHandler struct {
	store    CredentialStore
	verifier ShopVerifier
	webhooks WebhookManager
	validate *validator.Validate
	log      *zap.Logger
}

func NewInstallHandler(store CredentialStore, verifier ShopVerifier, wh WebhookManager, log *zap.Logger) *InstallHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("shopdomain", func(fl validator.FieldLevel) bool {
		return isValidShopDomain(fl.Field().String())
	})

	return &InstallHandler{
		store:    store,
		verifier: verifier,
		webhooks: wh,
		validate: v,
		log:      log,
	}
}

type webhooksData struct {
	Webhooks webhooks.Overview  `json:"webhooks"`
	Results  []webhooks.Result `json:"results,omitempty"`
}

func (h *InstallHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	switch strings.ToUpper(req.RequestContext.HTTP.Method) {
	case http.MethodGet:
		return okResp(map[string]any{"available": h.webhooks.Catalog().Keys()}, "")
	case http.MethodPost:
	default:
		return errResp(http.StatusBadRequest, apiError{Title: "Bad request."})
	}

	body, err := requestBody(req)
	if err != nil {
		return errResp(http.StatusBadRequest, apiError{Title: "Bad request.", Message: "Invalid body encoding"})
	}
	var in InstallRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return errResp(http.StatusBadRequest, apiError{Title: "Bad request.", Message: "Invalid JSON body"})
	}
	in.Shop = tenancy.NormalizeShop(in.Shop)
	in.Method = strings.ToUpper(strings.TrimSpace(in.Method))
	in.AccessToken = strings.TrimSpace(in.AccessToken)

	if err := h.validate.Struct(in); err != nil {
		return errResp(http.StatusBadRequest, apiError{
			Title:   "Bad request.",
			Message: "Missing required params",
			Params:  invalidParams(err),
		})
	}

	log := logging.ForShop(h.log, in.Shop).With(zap.String("method", in.Method))

	if in.AccessToken != "" {
		info, err := h.verifier.ShopInfo(ctx, shopify.Credential{Shop: in.Shop, AccessToken: in.AccessToken})
		if err != nil || info == nil || info.MyshopifyDomain != in.Shop {
			if err != nil {
				log.Warn("shop info lookup failed", zap.Error(err))
			}
			return errResp(http.StatusUnauthorized, apiError{
				Title:   "Unable to fetch shop info.",
				Message: "Bad access token",
				Tip:     "If you're sure that the access token is 100% correct, then please wait a couple of minutes and then try again.",
			})
		}
	}

	cred, err := h.resolveCredential(ctx, log, in)
	if err != nil {
		var ae *apiErrorResponse
		if errors.As(err, &ae) {
			return errResp(ae.status, ae.body)
		}
		log.Error("credential store failed", zap.Error(err))
		return internalErr(in.Method, err)
	}

	var change WebhooksChange
	if in.Webhooks != nil {
		change = *in.Webhooks
	}
	catalog := h.webhooks.Catalog()

	switch in.Method {
	case "GET":
		ov, err := h.webhooks.Overview(ctx, cred)
		if err != nil {
			return internalErr(in.Method, err)
		}
		return okResp(webhooksData{Webhooks: ov}, "")

	case "POST":
		data, err := h.addOrOverview(ctx, cred, catalog.Select(change.Add))
		if err != nil {
			log.Error("register webhooks failed", zap.Error(err))
			return internalErr(in.Method, err)
		}
		return okResp(data, "")

	case "PUT":
		if toRemove := catalog.Select(change.Remove); toRemove != nil {
			if _, err := h.webhooks.Delete(ctx, cred, webhooks.ByPubSubTopics(toRemove)); err != nil {
				log.Error("delete webhooks failed", zap.Error(err))
				return internalErr(in.Method, err)
			}
		}
		data, err := h.addOrOverview(ctx, cred, catalog.Select(change.Add))
		if err != nil {
			log.Error("register webhooks failed", zap.Error(err))
			return internalErr(in.Method, err)
		}
		return okResp(data, "")

	case "DELETE":
		var g errgroup.Group
		g.Go(func() error {
			_, err := h.webhooks.Delete(ctx, cred, nil)
			return err
		})
		g.Go(func() error {
			return h.store.Delete(ctx, cred.Shop)
		})
		if err := g.Wait(); err != nil {
			log.Error("uninstall failed", zap.Error(err))
			return internalErr(in.Method, err)
		}
		log.Warn("shop uninstalled")
		return okResp(nil, "Shop uninstalled. All webhooks deleted")
	}

	return errResp(http.StatusBadRequest, apiError{Title: "Bad request."})
}

func (h *InstallHandler) addOrOverview(ctx context.Context, cred shopify.Credential, toAdd []string) (webhooksData, error) {
	if toAdd == nil {
		ov, err := h.webhooks.Overview(ctx, cred)
		return webhooksData{Webhooks: ov}, err
	}
	ov, results, err := h.webhooks.Register(ctx, cred, webhooks.ByKeys(toAdd))
	return webhooksData{Webhooks: ov, Results: results}, err
}

type apiErrorResponse struct {
	status int
	body   apiError
}

func (e *apiErrorResponse) Error() string {
	return fmt.Sprintf("%d %s", e.status, e.body.Title)
}

// resolveCredential returns the credential to act with, storing the verified
// body token when the shop is new or presents a different token.
func (h *InstallHandler) resolveCredential(ctx context.Context, log *zap.Logger, in InstallRequest) (shopify.Credential, error) {
	stored, err := h.store.Get(ctx, in.Shop)
	installed := true
	if errors.Is(err, tenancy.ErrNotFound) {
		installed = false
	} else if err != nil {
		return shopify.Credential{}, err
	}

	if !installed {
		if in.AccessToken == "" {
			body := apiError{
				Title:   "Missing required params",
				Message: "Missing `accessToken` (string) in the body.",
				Code:    "UNAUTHORIZED",
			}
			if in.Method == "GET" {
				body.Title = "Shop is not installed."
				body.Message = "Please install the shop first."
			}
			return shopify.Credential{}, &apiErrorResponse{status: http.StatusBadRequest, body: body}
		}

		cred := shopify.Credential{Shop: in.Shop, AccessToken: in.AccessToken}
		if err := h.store.Set(ctx, cred); err != nil {
			return shopify.Credential{}, err
		}
		log.Info("shop installed")
		return cred, nil
	}

	if in.AccessToken == "" || in.AccessToken == stored.AccessToken {
		return stored, nil
	}

	// A new token usually means the app was reinstalled. On POST the old
	// app's subscriptions are cleared first.
	if in.Method == "POST" {
		if _, err := h.webhooks.Delete(ctx, stored, nil); err != nil {
			log.Warn("failed to delete webhooks of previous token", zap.Error(err))
		}
	}
	cred := shopify.Credential{Shop: in.Shop, AccessToken: in.AccessToken}
	if err := h.store.Set(ctx, cred); err != nil {
		return shopify.Credential{}, err
	}
	log.Info("access token replaced")
	return cred, nil
}

func invalidParams(err error) map[string]string {
	params := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		params["body"] = err.Error()
		return params
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "shop":
			params["shop"] = "Please provide a shop handle"
		case "method":
			params["method"] = fmt.Sprintf("Please provide a valid method. (%s)", strings.Join(installMethods, ", "))
		case "accessToken":
			params["accessToken"] = "Please provide access token"
		default:
			params[fe.Field()] = fe.Error()
		}
	}
	return params
}

package ginblog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

type DBSeeder interface {
	Seed(ctx context.Context, document string, data *godog.Table) error
}

// TokenIssuer mints a bearer token for a scenario user.
type TokenIssuer func(identity Identity) (string, error)

type TestSuite struct {
	T           *testing.T
	Router      *gin.Engine
	Resp        *http.Response
	RespBody    []byte
	Storage     map[string]string
	RequestBody []byte
	BaseURL     string
	DbSeeders   map[string]DBSeeder
	IssueToken  TokenIssuer
	// Reset runs before every scenario, typically dropping the test database.
	Reset func(ctx context.Context) error
	token string
}

func NewTestSuite(router *gin.Engine, issuer TokenIssuer) *TestSuite {
	return &TestSuite{
		Router:     router,
		Storage:    make(map[string]string),
		DbSeeders:  make(map[string]DBSeeder),
		IssueToken: issuer,
	}
}

type TestLogger struct {
	T *testing.T
}

func (ts *TestSuite) RegisterDBSeeder(document string, seeder DBSeeder) {
	ts.DbSeeders[document] = seeder
}

func (ts *TestSuite) SetBaseURL(baseURL string) {
	ts.BaseURL = baseURL
}

func (ts *TestSuite) InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		if ts.Storage == nil {
			ts.Storage = make(map[string]string)
		}
	})
}

func (ts *TestSuite) InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		ts.Resp = nil
		ts.RespBody = nil
		ts.RequestBody = nil
		ts.token = ""
		ts.Storage = make(map[string]string)
		if ts.Reset != nil {
			return c, ts.Reset(c)
		}
		return c, nil
	})

	ctx.Step(`^document "([^"]*)" has the following items$`, ts.documentHasTheFollowingItems)
	ctx.Step(`^I am signed in as "([^"]*)" with email "([^"]*)"$`, ts.iAmSignedInAs)
	ctx.Step(`^I am signed out$`, ts.iAmSignedOut)
	ctx.Step(`^I send a (GET|DELETE) request to "([^"]*)"$`, ts.iSendARequestTo)
	ctx.Step(`^I send a (POST|PUT|PATCH) request to "([^"]*)" with body$`, ts.iSendARequestWithTable)
	ctx.Step(`^I send a (POST|PUT|PATCH) request to "([^"]*)" with JSON$`, ts.iSendARequestWithJSON)
	ctx.Step(`^the response status should be (\d+)$`, ts.theResponseStatusShouldBe)
	ctx.Step(`^the response "([^"]*)" field is stored as "([^"]*)"$`, ts.theResponseFieldIsStoredAs)
	ctx.Step(`^the response should contain an item with$`, ts.theResponseShouldContainAnItemWith)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, ts.theResponseFieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should have (\d+) items?$`, ts.theResponseFieldShouldHaveItems)
}

func (ts *TestSuite) documentHasTheFollowingItems(ctx context.Context, document string, data *godog.Table) error {
	seeder, ok := ts.DbSeeders[document]
	if !ok {
		return fmt.Errorf("no seeder registered for document %s", document)
	}
	return seeder.Seed(ctx, document, data)
}

func (ts *TestSuite) iAmSignedInAs(uid, email string) error {
	if ts.IssueToken == nil {
		return fmt.Errorf("no token issuer configured")
	}
	token, err := ts.IssueToken(Identity{UID: uid, Email: email, Name: uid})
	if err != nil {
		return err
	}
	ts.token = token
	return nil
}

func (ts *TestSuite) iAmSignedOut() error {
	ts.token = ""
	return nil
}

func (ts *TestSuite) iSendARequestTo(method, path string) error {
	ts.RequestBody = nil
	return ts.send(method, path)
}

func (ts *TestSuite) iSendARequestWithTable(method, path string, body *godog.Table) error {
	var err error
	ts.RequestBody, err = ts.parseDataTableToJSON(body)
	if err != nil {
		return err
	}
	return ts.send(method, path)
}

func (ts *TestSuite) iSendARequestWithJSON(method, path string, body *godog.DocString) error {
	ts.RequestBody = []byte(ts.interpolate(body.Content))
	return ts.send(method, path)
}

func (ts *TestSuite) send(method, path string) error {
	url := ts.BaseURL + ts.interpolate(path)
	var body io.Reader
	if ts.RequestBody != nil {
		body = bytes.NewReader(ts.RequestBody)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	if ts.RequestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}

	if ts.BaseURL != "" {
		ts.Resp, err = http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
	} else {
		w := httptest.NewRecorder()
		ts.Router.ServeHTTP(w, req)
		ts.Resp = w.Result()
	}
	defer ts.Resp.Body.Close()

	ts.RespBody, err = io.ReadAll(ts.Resp.Body)
	return err
}

// interpolate replaces {name} with values stored by earlier steps.
func (ts *TestSuite) interpolate(s string) string {
	for key, value := range ts.Storage {
		s = strings.ReplaceAll(s, "{"+key+"}", value)
	}
	return s
}

func (ts *TestSuite) theResponseStatusShouldBe(status int) error {
	if ts.Resp.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, ts.Resp.StatusCode, ts.RespBody)
	}
	return nil
}

func (ts *TestSuite) theResponseFieldIsStoredAs(field, key string) error {
	val, err := ts.lookup(field)
	if err != nil {
		return err
	}
	ts.Storage[key] = fmt.Sprintf("%v", val)
	return nil
}

func (ts *TestSuite) theResponseFieldShouldBe(field, expected string) error {
	val, err := ts.lookup(field)
	if err != nil {
		return err
	}
	if actual := fmt.Sprintf("%v", val); actual != ts.interpolate(expected) {
		return fmt.Errorf("field %s: expected %q, got %q", field, expected, actual)
	}
	return nil
}

func (ts *TestSuite) theResponseFieldShouldHaveItems(field string, count int) error {
	val, err := ts.lookup(field)
	if err != nil {
		return err
	}
	items, ok := val.([]interface{})
	if !ok {
		return fmt.Errorf("field %s is not a list", field)
	}
	if len(items) != count {
		return fmt.Errorf("field %s: expected %d items, got %d", field, count, len(items))
	}
	return nil
}

// lookup resolves a dotted path such as "items.0.title" in the response. The
// path "." addresses the body itself.
func (ts *TestSuite) lookup(path string) (interface{}, error) {
	var data interface{}
	if err := json.Unmarshal(ts.RespBody, &data); err != nil {
		return nil, err
	}
	if path == "." {
		return data, nil
	}
	for _, part := range strings.Split(path, ".") {
		switch node := data.(type) {
		case map[string]interface{}:
			val, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %s not found in response", path)
			}
			data = val
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("index %s out of range in %s", part, path)
			}
			data = node[idx]
		default:
			return nil, fmt.Errorf("field %s not found in response", path)
		}
	}
	return data, nil
}

func (ts *TestSuite) theResponseShouldContainAnItemWith(body *godog.Table) error {
	expected, err := ts.parseDataTableToJSON(body)
	if err != nil {
		return err
	}

	var expectedMap map[string]interface{}
	if err := json.Unmarshal(expected, &expectedMap); err != nil {
		return err
	}

	var actualMap map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &actualMap); err != nil {
		return err
	}

	for key, expectedValue := range expectedMap {
		actualValue, ok := actualMap[key]
		if !ok {
			return fmt.Errorf("field %s not found in response", key)
		}
		assert.Equal(ts.T, expectedValue, fmt.Sprintf("%v", actualValue))
	}
	return nil
}

func (ts *TestSuite) parseDataTableToJSON(body *godog.Table) ([]byte, error) {
	if len(body.Rows) < 2 {
		return nil, fmt.Errorf("table must have at least two rows")
	}
	headers := body.Rows[0].Cells
	data := make(map[string]interface{})
	row := body.Rows[1]
	for j, cell := range row.Cells {
		value := ts.interpolate(cell.Value)
		switch {
		case value == "true" || value == "false":
			data[headers[j].Value] = value == "true"
		case strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]"):
			var list []interface{}
			if err := json.Unmarshal([]byte(value), &list); err != nil {
				return nil, fmt.Errorf("column %s: %w", headers[j].Value, err)
			}
			data[headers[j].Value] = list
		default:
			data[headers[j].Value] = value
		}
	}
	return json.Marshal(data)
}

// GenericDBSeeder fills registered document structs from a godog table and
// inserts them into the collection named after the document.
type GenericDBSeeder struct {
	Constructors map[string]func() Document
	DB           *mongo.Database
}

func NewGenericDBSeeder(db *mongo.Database) *GenericDBSeeder {
	return &GenericDBSeeder{
		Constructors: make(map[string]func() Document),
		DB:           db,
	}
}

func (gds *GenericDBSeeder) Register(name string, constructor func() Document) {
	gds.Constructors[name] = constructor
}

func (gds *GenericDBSeeder) Seed(ctx context.Context, document string, data *godog.Table) error {
	constructor, ok := gds.Constructors[document]
	if !ok {
		return fmt.Errorf("no constructor registered for document type: %s", document)
	}

	headers := data.Rows[0].Cells
	for i := 1; i < len(data.Rows); i++ {
		doc := constructor()
		val := reflect.ValueOf(doc).Elem()

		for j, cell := range data.Rows[i].Cells {
			fieldName := headers[j].Value
			field := fieldByName(val, fieldName)
			if !field.IsValid() || !field.CanSet() {
				return fmt.Errorf("could not set field %s for document %s", fieldName, document)
			}
			if err := setField(field, cell.Value); err != nil {
				return fmt.Errorf("field %s: %w", fieldName, err)
			}
		}
		if _, err := gds.DB.Collection(doc.GetCollectionName()).InsertOne(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// fieldByName matches the Go field name, then json and bson tags. Dotted
// names address nested structs.
func fieldByName(val reflect.Value, name string) reflect.Value {
	head, rest, nested := strings.Cut(name, ".")
	field := val.FieldByName(toPascalCase(head))
	if !field.IsValid() {
		typ := val.Type()
		for k := 0; k < typ.NumField(); k++ {
			jsonName, _, _ := strings.Cut(typ.Field(k).Tag.Get("json"), ",")
			bsonName, _, _ := strings.Cut(typ.Field(k).Tag.Get("bson"), ",")
			if jsonName == head || bsonName == head {
				field = val.Field(k)
				break
			}
		}
	}
	if nested && field.IsValid() && field.Kind() == reflect.Struct {
		return fieldByName(field, rest)
	}
	return field
}

var timeType = reflect.TypeOf(time.Time{})

func setField(field reflect.Value, value string) error {
	if field.Kind() == reflect.Ptr {
		if value == "" {
			field.Set(reflect.Zero(field.Type()))
			return nil
		}
		ptr := reflect.New(field.Type().Elem())
		if err := setField(ptr.Elem(), value); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}
	if field.Type() == timeType {
		t, err := parseSeedTime(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if value == "" {
			field.SetInt(0)
			return nil
		}
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intVal)
	case reflect.Bool:
		if value == "" {
			field.SetBool(false)
			return nil
		}
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		items := reflect.MakeSlice(field.Type(), 0, 0)
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = reflect.Append(items, reflect.ValueOf(item))
			}
		}
		field.Set(items)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// parseSeedTime accepts RFC3339, a date, "now" or an offset from now such as
// "-48h" or "+2h".
func parseSeedTime(value string) (time.Time, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	switch {
	case value == "" || value == "now":
		return now, nil
	case strings.HasPrefix(value, "-") || strings.HasPrefix(value, "+"):
		d, err := time.ParseDuration(value)
		if err != nil {
			return time.Time{}, err
		}
		return now.Add(d), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, value)
}

func toPascalCase(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (tl *TestLogger) Write(p []byte) (n int, err error) {
	if tl.T != nil {
		tl.T.Logf("%s", p)
	}
	return len(p), nil
}

// RunFeatures executes the feature files under paths against suite.
func RunFeatures(t *testing.T, suite *TestSuite, paths ...string) int {
	suite.T = t
	if len(paths) == 0 {
		paths = []string{"features"}
	}
	opts := godog.Options{
		Format:    "pretty",
		Output:    colors.Colored(&TestLogger{T: t}),
		Paths:     paths,
		Strict:    true,
		Randomize: 0,
	}

	return godog.TestSuite{
		Name:                 "ginblog",
		TestSuiteInitializer: suite.InitializeTestSuite,
		ScenarioInitializer:  suite.InitializeScenario,
		Options:              &opts,
	}.Run()
}

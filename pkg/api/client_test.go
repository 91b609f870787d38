package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(NewClientParams{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr bool
	}{
		{name: "default", baseURL: "", want: DefaultBaseURL},
		{name: "trailing slash", baseURL: "http://backend:8000/", want: "http://backend:8000"},
		{name: "no scheme", baseURL: "backend:8000", wantErr: true},
		{name: "garbage", baseURL: "://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(NewClientParams{BaseURL: tt.baseURL})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.BaseURL())
		})
	}
}

func TestUploadFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/files/upload", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)

		assert.Equal(t, "people.csv", header.Filename)
		assert.Equal(t, "text/csv", header.Header.Get("Content-Type"))
		assert.Equal(t, "name\n张三\n", string(content))

		writeJSON(t, w, http.StatusOK, map[string]string{"job_id": "job-1", "status": "processing", "message": "文件上传成功"})
	})

	res, err := client.UploadFile(context.Background(), "people.csv", "text/csv", strings.NewReader("name\n张三\n"))
	require.NoError(t, err)
	assert.Equal(t, "job-1", res.JobID)
	assert.Equal(t, "processing", res.Status)
}

func TestUploadFileMissingJobID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		writeJSON(t, w, http.StatusOK, map[string]string{"status": "processing"})
	})

	_, err := client.UploadFile(context.Background(), "a.txt", "", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job_id")
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantMessage string
	}{
		{name: "detail", status: http.StatusNotFound, contentType: "application/json", body: `{"detail":"任务不存在"}`, wantMessage: "任务不存在"},
		{name: "message", status: http.StatusBadGateway, contentType: "application/json", body: `{"message":"upstream down"}`, wantMessage: "upstream down"},
		{name: "structured detail", status: http.StatusUnprocessableEntity, contentType: "application/json", body: `{"detail":[{"loc":["query"]}]}`, wantMessage: `[{"loc":["query"]}]`},
		{name: "plain text", status: http.StatusInternalServerError, contentType: "text/plain", body: "boom\n", wantMessage: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.GetProcessingStatus(context.Background(), "job-1")
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, "get_processing_status", apiErr.Op)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, tt.status == http.StatusNotFound, IsNotFound(err))
		})
	}
}

func TestNoRetryOnFailure(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.GetConversation(context.Background(), "conv-1")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetProcessingStatusAndEntities(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/files/status/job-1":
			writeJSON(t, w, http.StatusOK, map[string]any{"status": "processing", "progress": 40, "message": "正在提取人物实体..."})
		case "/api/files/entities/job-1":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"status": "completed",
				"entities": []map[string]any{
					{"id": "e1", "name": "张三", "domain": "物理", "email": "zs@example.com"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	})

	status, err := client.GetProcessingStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, common.JobStatus{Status: "processing", Progress: 40, Message: "正在提取人物实体..."}, status)

	entities, err := client.GetJobEntities(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "张三", entities[0].Name)
	assert.Equal(t, "zs@example.com", entities[0].Extra["email"])
}

func TestListEntitiesQuery(t *testing.T) {
	tests := []struct {
		name      string
		search    string
		domain    string
		wantQuery string
	}{
		{name: "no filters", wantQuery: ""},
		{name: "search only", search: "张", wantQuery: "search_text=%E5%BC%A0"},
		{name: "domain only", domain: "物理", wantQuery: "domain=%E7%89%A9%E7%90%86"},
		{name: "both", search: "a", domain: "b", wantQuery: "domain=b&search_text=a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/entities", r.URL.Path)
				assert.Equal(t, tt.wantQuery, r.URL.RawQuery)
				writeJSON(t, w, http.StatusOK, map[string]any{
					"entities": []map[string]any{{"id": "e1", "name": "张三"}},
					"count":    1,
				})
			})

			entities, err := client.ListEntities(context.Background(), tt.search, tt.domain)
			require.NoError(t, err)
			assert.Len(t, entities, 1)
		})
	}
}

func TestEntityCRUD(t *testing.T) {
	var (
		mu         sync.Mutex
		gotMethods []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotMethods = append(gotMethods, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/entities":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "李四", body["name"])
			writeJSON(t, w, http.StatusOK, map[string]string{"id": "e2", "message": "实体创建成功"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/entities/e2":
			writeJSON(t, w, http.StatusOK, map[string]any{"id": "e2", "name": "李四"})
		case r.Method == http.MethodPut && r.URL.Path == "/api/entities/e2":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"position": "教授"}, body)
			writeJSON(t, w, http.StatusOK, map[string]string{"message": "实体更新成功"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/entities/e2":
			writeJSON(t, w, http.StatusOK, map[string]string{"message": "实体删除成功"})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	created, err := client.CreateEntity(ctx, common.Entity{Name: "李四"})
	require.NoError(t, err)
	assert.Equal(t, "e2", created.ID)

	entity, err := client.GetEntity(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, "李四", entity.Name)

	_, err = client.UpdateEntity(ctx, "e2", map[string]any{"position": "教授"})
	require.NoError(t, err)

	deleted, err := client.DeleteEntity(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, "实体删除成功", deleted.Message)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"POST /api/entities",
		"GET /api/entities/e2",
		"PUT /api/entities/e2",
		"DELETE /api/entities/e2",
	}, gotMethods)
}

func TestEntityRelationships(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/entities/e1/relationships", r.URL.Path)
		if r.Method == http.MethodPost {
			var rel common.Relationship
			require.NoError(t, json.NewDecoder(r.Body).Decode(&rel))
			assert.Equal(t, "e2", rel.TargetID)
			writeJSON(t, w, http.StatusOK, map[string]string{"entity_id": "e1", "message": "关系添加成功"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"entity_id": "e1",
			"relationships": []map[string]any{
				{"target_id": "e2", "relationship_type": "同事", "relationship_description": "同一实验室", "confidence": 0.9},
			},
		})
	})
	ctx := context.Background()

	rels, err := client.GetEntityRelationships(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	require.NotNil(t, rels[0].Confidence)
	assert.InDelta(t, 0.9, *rels[0].Confidence, 1e-9)

	res, err := client.AddEntityRelationship(ctx, "e1", common.Relationship{TargetID: "e2", Type: "同事"})
	require.NoError(t, err)
	assert.Equal(t, "e1", res.EntityID)
}

func TestConversationEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/conversations/start":
			var body struct {
				EntityIDs []string `json:"entity_ids"`
				Query     string   `json:"query"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []string{"e1", "e2"}, body.EntityIDs)
			assert.Equal(t, "他们认识吗", body.Query)
			writeJSON(t, w, http.StatusOK, map[string]string{"conversation_id": "c1", "status": "initializing"})
		case "/api/conversations/c1":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"status":   "completed",
				"messages": []map[string]string{{"role": "user", "content": "他们认识吗"}, {"role": "analyst", "content": "是的"}},
				"summary":  "两人是同学",
			})
		case "/api/conversations/c1/messages":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "继续", body["message"])
			writeJSON(t, w, http.StatusOK, map[string]string{"message": "消息已添加"})
		case "/api/conversations/c1/relationships":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"conversation_id": "c1",
				"relationships":   []map[string]string{{"source": "张三", "description": "张三和李四是同学"}},
			})
		case "/api/conversations/c1/summary":
			writeJSON(t, w, http.StatusOK, map[string]string{"conversation_id": "c1", "summary": "两人是同学"})
		case "/api/conversations/c1/visualization":
			writeJSON(t, w, http.StatusOK, map[string]any{"conversation_id": "c1", "visualization": map[string]string{"suggestion": "突出同学关系"}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	started, err := client.StartConversation(ctx, []string{"e1", "e2"}, "他们认识吗")
	require.NoError(t, err)
	assert.Equal(t, "c1", started.ConversationID)

	conv, err := client.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, common.StatusCompleted, conv.Status)
	require.Len(t, conv.Messages, 2)
	assert.True(t, conv.Messages[1].IsAgent())

	require.NoError(t, client.AddMessage(ctx, "c1", "继续"))

	rels, err := client.GetConversationRelationships(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []common.DiscoveredRelationship{{Source: "张三", Description: "张三和李四是同学"}}, rels)

	summary, err := client.GetConversationSummary(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "两人是同学", summary)

	vis, err := client.GetConversationVisualization(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "突出同学关系", vis["suggestion"])
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetConversation(ctx, "c1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

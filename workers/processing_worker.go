package workers

import (
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/visionlab/visionbackend/media"
	"github.com/visionlab/visionbackend/realtime"
	"github.com/visionlab/visionbackend/repository"
)

// ProcessingJob describes one algorithm run against one image
type ProcessingJob struct {
	ImageID    int64
	Algorithm  string
	Parameters datatypes.JSON
}

// OperationProcessor runs queued processing jobs and is the sole writer of
// the operation audit log: every finished job, successful or not, produces
// exactly one ProcessingOperation record.
type OperationProcessor struct {
	JobQueue   chan ProcessingJob
	Images     repository.ProjectImageRepositoryInterface
	Operations repository.OperationRepositoryInterface
	Media      *media.Processor
	Hub        *realtime.Hub // optional; nil disables event publishing
	Wg         sync.WaitGroup
	StopChan   chan struct{}
	Pending    map[string]bool
	Mutex      sync.Mutex
}

func NewOperationProcessor(images repository.ProjectImageRepositoryInterface, operations repository.OperationRepositoryInterface, mediaProc *media.Processor, hub *realtime.Hub, queueSize, numWorkers int) *OperationProcessor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	proc := &OperationProcessor{
		JobQueue:   make(chan ProcessingJob, queueSize),
		Images:     images,
		Operations: operations,
		Media:      mediaProc,
		Hub:        hub,
		StopChan:   make(chan struct{}),
		Pending:    make(map[string]bool),
	}
	proc.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go proc.worker(i)
	}
	log.Printf("Started %d processing worker(s) with queue size %d", numWorkers, queueSize)
	return proc
}

// worker processes jobs from the queue
func (op *OperationProcessor) worker(id int) {
	defer op.Wg.Done()

	log.Printf("Processing worker %d started", id)
	for {
		select {
		case job, ok := <-op.JobQueue:
			if !ok {
				log.Printf("Processing worker %d stopping: Job queue closed", id)
				return
			}

			log.Printf("Worker %d: Received algorithm '%s' for image %d", id, job.Algorithm, job.ImageID)
			op.runJob(id, job)

			op.Mutex.Lock()
			delete(op.Pending, pendingKey(job))
			op.Mutex.Unlock()

		case <-op.StopChan:
			log.Printf("Processing worker %d stopping: Stop signal received", id)
			return
		}
	}
}

// runJob applies the algorithm, stores the output, and records the audit
// row with the elapsed wall-clock time
func (op *OperationProcessor) runJob(id int, job ProcessingJob) {
	img, err := op.Images.GetByID(job.ImageID)
	if err != nil {
		// image was deleted while the job sat in the queue; there is no
		// parent to record against
		log.Printf("Worker %d: Skipping '%s', image %d not found: %v", id, job.Algorithm, job.ImageID, err)
		return
	}

	start := time.Now()
	var out image.Image
	var taskErr error

	params, taskErr := media.DecodeParams(job.Parameters)
	if taskErr == nil {
		if media.IsCVAlgorithm(job.Algorithm) {
			var fullPath string
			fullPath, taskErr = op.Media.FullPath(img.StoragePath)
			if taskErr == nil {
				out, taskErr = media.ApplyCV(fullPath, job.Algorithm, params)
			}
		} else {
			var src image.Image
			src, taskErr = op.Media.Open(img.StoragePath)
			if taskErr == nil {
				out, taskErr = media.Apply(src, job.Algorithm, params)
			}
		}
	}

	var resultPath *string
	if taskErr == nil && out != nil {
		relPath, saveErr := op.Media.SaveResult(out)
		if saveErr != nil {
			taskErr = saveErr
		} else {
			resultPath = &relPath
		}
	}
	elapsedMs := int(time.Since(start).Milliseconds())

	record := repository.NewOperation(job.ImageID, job.Algorithm)
	if len(job.Parameters) > 0 {
		record.Parameters = job.Parameters
	}
	record.ExecutionTimeMs = elapsedMs
	if taskErr != nil {
		record.Success = false
		errStr := taskErr.Error()
		record.ErrorMessage = &errStr
		log.Printf("Worker %d: Algorithm '%s' failed for image %d: %v", id, job.Algorithm, job.ImageID, taskErr)
	} else {
		log.Printf("Worker %d: Algorithm '%s' completed for image %d in %dms", id, job.Algorithm, job.ImageID, elapsedMs)
	}

	if err := op.Operations.Create(record); err != nil {
		log.Printf("Worker %d: ERROR recording operation for image %d: %v", id, job.ImageID, err)
		return
	}

	if resultPath != nil {
		if err := op.Images.SetProcessedPath(job.ImageID, resultPath); err != nil {
			log.Printf("Worker %d: ERROR updating processed path for image %d: %v", id, job.ImageID, err)
		}
	}

	if op.Hub != nil {
		errMsg := ""
		if record.ErrorMessage != nil {
			errMsg = *record.ErrorMessage
		}
		op.Hub.Broadcast(realtime.OperationRecorded(record.ID, job.ImageID, job.Algorithm, record.Success, errMsg, elapsedMs))
	}
}

func pendingKey(job ProcessingJob) string {
	// composite key: "imageID:algorithm"
	return fmt.Sprintf("%d:%s", job.ImageID, job.Algorithm)
}

// QueueJob queues a job unless the same algorithm is already pending for
// the image
func (op *OperationProcessor) QueueJob(job ProcessingJob) bool {
	key := pendingKey(job)

	op.Mutex.Lock()
	if op.Pending[key] {
		op.Mutex.Unlock()
		return false
	}

	op.Pending[key] = true
	op.Mutex.Unlock()

	select {
	case op.JobQueue <- job:
		log.Printf("Queued algorithm '%s' for image %d", job.Algorithm, job.ImageID)
		return true
	default:
		log.Printf("WARNING: Processing job queue full. Failed to queue '%s' for image %d", job.Algorithm, job.ImageID)
		op.Mutex.Lock()
		delete(op.Pending, key)
		op.Mutex.Unlock()
		return false
	}
}

func (op *OperationProcessor) Stop() {
	log.Println("Stopping processing workers...")
	close(op.StopChan)
	op.Wg.Wait()
	log.Println("All processing workers stopped")
}
